package gather

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Hash returns the hex SHA3-256 digest of content.
func Hash(content []byte) string {
	sum := sha3.Sum256(content)
	return hex.EncodeToString(sum[:])
}
