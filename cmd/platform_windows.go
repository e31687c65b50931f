//go:build windows

package cmd

import _ "github.com/mj1618/wingman/internal/platform/windows"
