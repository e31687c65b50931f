//go:build darwin

package cmd

import _ "github.com/mj1618/wingman/internal/platform/darwin"
