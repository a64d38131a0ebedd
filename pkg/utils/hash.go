package utils

import (
	"crypto/md5"
	"fmt"
)

// HashString returns a hex digest used for cache keys. Not for security.
func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}
