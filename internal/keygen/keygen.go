package keygen

import (
	"crypto/rand"
	"math/big"
)

// KeyLength is the fixed length of a document key.
const KeyLength = 20

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateKey returns a random alphanumeric document key. The key is an
// opaque cache-busting identifier: the document server treats a changed key
// as "this is new content, drop anything you cached".
func GenerateKey() string {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, KeyLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// nothing sensible to do but stop.
			panic(err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b)
}
