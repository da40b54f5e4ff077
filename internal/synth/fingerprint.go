package synth

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HeaderPrefix opens the first line of every fingerprinted file.
const HeaderPrefix = "// @orivus-fingerprint: "

// FingerprintLen is the number of hex digits kept from the digest.
const FingerprintLen = 12

var headerRe = regexp.MustCompile(`^// @orivus-fingerprint: ([0-9a-f]{12})\r?$`)

// Normalize unifies line endings and trims surrounding whitespace, so that
// fingerprints survive editors and VCS line-ending conversion.
func Normalize(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return strings.TrimSpace(body)
}

// Fingerprint is the truncated BLAKE2b-256 digest of the normalized body.
// It detects edits; it is not a security primitive.
func Fingerprint(body string) string {
	sum := blake2b.Sum256([]byte(Normalize(body)))
	return hex.EncodeToString(sum[:])[:FingerprintLen]
}

// Stamp prefixes body with its fingerprint header.
func Stamp(body string) string {
	return HeaderPrefix + Fingerprint(body) + "\n" + Normalize(body) + "\n"
}

// SplitHeader separates a fingerprint header from the rest of content.
// ok is false when the first line is not a header.
func SplitHeader(content string) (fingerprint, body string, ok bool) {
	line, rest, _ := strings.Cut(content, "\n")
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return "", content, false
	}
	return m[1], rest, true
}

// Unmodified reports whether content carries a header that still matches
// its body.
func Unmodified(content string) bool {
	fp, body, ok := SplitHeader(content)
	return ok && fp == Fingerprint(body)
}
