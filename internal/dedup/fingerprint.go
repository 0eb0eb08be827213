// Package dedup maintains the durable fingerprint index that suppresses
// re-narration of already-covered stories across runs.
//
// A fingerprint is derived only from normalized title and URL, so the same
// event discovered via two different sources collides onto one record. Records
// expire a fixed window after they were FIRST seen; rediscovering a story does
// not extend its suppression.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint is a hex-encoded digest identifying one news event.
type Fingerprint string

// Compute derives the fingerprint of an item from its title and URL.
// Case and whitespace differences do not change the result. The digest is
// stable across process restarts and deliberately ignores source kind and
// fetch time.
func Compute(title, url string) Fingerprint {
	norm := normalize(title) + "\n" + normalize(url)
	sum := sha256.Sum256([]byte(norm))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// normalize case-folds and collapses all runs of whitespace to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
