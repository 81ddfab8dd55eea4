package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// DomainUnit separates unit content hashes from other hashes.
const DomainUnit = "galvan/unit/v1"

// ContentHash is SHA256(DomainUnit + 0x00 + content), hex encoded.
func ContentHash(content string) string {
	h := sha256.New()
	h.Write([]byte(DomainUnit))
	h.Write([]byte{0x00})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// marshalOptions converts build options to JSON TEXT with sorted keys and
// HTML escaping disabled, so equal options always store as equal text.
func marshalOptions(opts map[string]string) (string, error) {
	if len(opts) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(opts); err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}
	// Encoder adds a trailing newline
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalOptions(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var opts map[string]string
	if err := json.Unmarshal([]byte(data), &opts); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	return opts, nil
}
