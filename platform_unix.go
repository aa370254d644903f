//go:build unix

package provenance

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// platformString identifies the host the way uname reports it:
// sysname-release-machine, e.g. "Linux-6.8.0-47-generic-x86_64".
func platformString() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return runtime.GOOS + "-" + runtime.GOARCH
	}
	return fmt.Sprintf("%s-%s-%s",
		utsField(uts.Sysname[:]), utsField(uts.Release[:]), utsField(uts.Machine[:]))
}

// utsField converts a NUL-terminated utsname field to a string.
func utsField(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
