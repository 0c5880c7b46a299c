package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 signs with the current secret and verifies against the current
// and any previous secrets, so links already sent survive a key rotation.
type HMACSHA256 struct {
	keys [][]byte
}

func NewHMACSHA256(secret string, previous ...string) *HMACSHA256 {
	h := &HMACSHA256{keys: [][]byte{[]byte(secret)}}
	for _, p := range previous {
		if p != "" && p != secret {
			h.keys = append(h.keys, []byte(p))
		}
	}
	return h
}

// Sign returns the lowercase hex signature of payload.
func (h *HMACSHA256) Sign(payload string) string {
	return hex.EncodeToString(mac(h.keys[0], payload))
}

func (h *HMACSHA256) Verify(payload, sig string) bool {
	got, err := hex.DecodeString(sig)
	if err != nil || len(got) != sha256.Size {
		return false
	}

	for _, k := range h.keys {
		if hmac.Equal(got, mac(k, payload)) {
			return true
		}
	}
	return false
}

func mac(key []byte, payload string) []byte {
	m := hmac.New(sha256.New, key)
	m.Write([]byte(payload))
	return m.Sum(nil)
}
