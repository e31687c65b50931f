//go:build darwin

// Package darwin provides macOS platform support using CoreGraphics and
// AppKit. All functionality requires CGo; without it the package compiles
// as a no-op stub and wingman reports the platform as unsupported.
//
// There is no accessibility tree reader on macOS: reads always go through
// capture and OCR.
package darwin
