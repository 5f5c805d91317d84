package stack

import (
	"fmt"
	"strings"
)

// Mode selects how frames are acquired.
type Mode uint8

const (
	// ModeAuto prefers native and falls back to traceback parsing.
	ModeAuto Mode = iota
	// ModeNative walks program counters with runtime.CallersFrames.
	ModeNative
	// ModeFallback rebuilds frames from the text of runtime.Stack.
	ModeFallback
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeNative:
		return "native"
	case ModeFallback:
		return "fallback"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "native":
		return ModeNative, nil
	case "fallback":
		return ModeFallback, nil
	}
	return ModeAuto, fmt.Errorf("unknown frame backend %q", s)
}
