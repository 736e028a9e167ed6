package tts

import (
	"crypto/sha256"
	"encoding/hex"
)

// cacheKeyLen is the number of hex characters kept from the digest. 96 bits
// is plenty of collision resistance for a per-deployment audio cache while
// keeping filenames short.
const cacheKeyLen = 24

// CacheKey derives the deterministic cache key for a synthesis request.
// The hash input is "voice|speed|text": order-sensitive, pipe-delimited,
// UTF-8. Identical normalized inputs always produce identical keys.
func CacheKey(text, voice, speed string) string {
	sum := sha256.Sum256([]byte(voice + "|" + speed + "|" + text))
	return hex.EncodeToString(sum[:])[:cacheKeyLen]
}

// FileName returns the cache file name for a key and audio format.
func FileName(key, format string) string {
	return key + "." + format
}
