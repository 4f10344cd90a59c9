package lock

import (
	"crypto/rand"
	"encoding/base64"
)

// identifierByteLength is the amount of entropy (18 bytes = 144 bits) packed
// into a default identifier before base64 encoding to 24 ASCII characters.
const identifierByteLength = 18

// generateIdentifier returns a fresh random identifier with at least 128
// bits of entropy, encoded as printable ASCII.
func generateIdentifier() (string, error) {
	buf := make([]byte, identifierByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// identifierFromBytes converts a caller-supplied byte identifier to the
// printable-ASCII form stored under the lock key. If the bytes decode
// cleanly as ASCII they are used as-is; otherwise they are base64-encoded,
// matching the legacy identifier contract described in spec.md §9.
func identifierFromBytes(id []byte) string {
	if isASCII(id) {
		return string(id)
	}
	return base64.StdEncoding.EncodeToString(id)
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// decodeOwnerValue decodes a raw value read back from the lock key using
// ASCII-with-replacement semantics, matching get_owner_id's
// bytes.decode('ascii', 'replace') in the original implementation.
func decodeOwnerValue(b []byte) string {
	out := make([]rune, len(b))
	for i, c := range b {
		if c < 0x80 {
			out[i] = rune(c)
		} else {
			out[i] = 0xFFFD // unicode replacement character
		}
	}
	return string(out)
}
