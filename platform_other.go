//go:build !unix

package provenance

import "runtime"

// platformString identifies the host OS and architecture.
func platformString() string {
	return runtime.GOOS + "-" + runtime.GOARCH
}
