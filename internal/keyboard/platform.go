package keyboard

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform decides which modifier acts as the command key.
type Platform string

const (
	PlatformAuto  Platform = "auto"
	PlatformMac   Platform = "mac"
	PlatformOther Platform = "other"
)

func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PlatformAuto:
		return DetectPlatform(), nil
	case PlatformMac, PlatformOther:
		return p, nil
	default:
		return "", fmt.Errorf("unknown keyboard platform %q", s)
	}
}

func DetectPlatform() Platform {
	if runtime.GOOS == "darwin" {
		return PlatformMac
	}
	return PlatformOther
}

// modifier reports whether the platform command key is held: Meta on macOS, Ctrl elsewhere.
func (p Platform) modifier(ev KeyEvent) bool {
	if p == PlatformMac {
		return ev.Meta
	}
	return ev.Ctrl
}
