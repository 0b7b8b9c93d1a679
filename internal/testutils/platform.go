package testutils

import (
	"os"
	"runtime"
)

// IsUnixNonRoot returns true when file permissions are enforced for the current user:
// a Unix-like system and a user other than root.
func IsUnixNonRoot() bool {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "openbsd", "netbsd":
		return os.Getuid() != 0
	default:
		return false
	}
}
