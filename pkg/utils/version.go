// Package utils holds small helpers shared by the commands and the API that
// don't warrant a package of their own.
package utils

// Build metadata, stamped at link time:
//
//	go build -ldflags "-X github.com/papercomputeco/ledgerview/pkg/utils.Version=v0.3.0"
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies this build to the kernel, e.g. "ledgerview/v0.3.0".
func UserAgent() string {
	return "ledgerview/" + Version
}
