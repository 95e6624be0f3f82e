package gallery

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"regexp"
)

// tokenBytes is how much of the masked MAC ends up in a public token.
// Existing galleries depend on it; changing it orphans them.
const tokenBytes = 7

var (
	// SpecPattern matches the "name!passphrase" form submitted by clients.
	SpecPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9]{3,9})!(.{4,99})$`)

	// PublicPattern matches a public gallery token.
	PublicPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]{3,9}:[a-zA-Z0-9_-]{10}$`)
)

// DeriveToken returns the public token for a gallery. The passphrase is
// MACed under the gallery name, that result MACed again under the server
// secret, and the first seven bytes appended to the name.
func DeriveToken(secret []byte, name, passphrase string) string {
	userDetails := mac([]byte(name), []byte(passphrase))
	masked := mac(secret, userDetails)
	return name + ":" + base64.RawURLEncoding.EncodeToString(masked[:tokenBytes])
}

func mac(key, message []byte) []byte {
	h := hmac.New(sha512.New512_256, key)
	h.Write(message)
	return h.Sum(nil)
}

// ParseSpec splits a "name!passphrase" string.
func ParseSpec(spec string) (name, passphrase string, ok bool) {
	m := SpecPattern.FindStringSubmatch(spec)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ValidPublic reports whether token is a well-formed public token.
func ValidPublic(token string) bool {
	return PublicPattern.MatchString(token)
}
