//go:build !linux

package logger

import "io"

// IsTerminal always reports false off Linux; pretty output must be requested explicitly.
func IsTerminal(io.Writer) bool { return false }
