// Package naming derives stable container names from an owner identifier and
// an image reference. The same owner and image always map to the same name,
// so retrying a workload targets the same container identity. The daemon
// rejects duplicate names; provisioning the same owner twice without removing
// the first container is a known limitation, surfaced by the daemon client as
// a conflict.
package naming

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

const ownerHashLen = 10

// ContainerName returns "<image base>_<short owner hash>", e.g.
// ContainerName("alpha", "httpd:latest") == "httpd_2c1743a391".
func ContainerName(owner, image string) string {
	base, _, _ := strings.Cut(image, ":")
	return base + "_" + OwnerHash(owner)
}

// OwnerHash is the first 10 hex characters of the md5 of the owner
// identifier. md5 is an identity scheme here, not a security boundary.
func OwnerHash(owner string) string {
	sum := md5.Sum([]byte(owner))
	return hex.EncodeToString(sum[:])[:ownerHashLen]
}
