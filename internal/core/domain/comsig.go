package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ComSignature is a commitment signature proving ownership of the swapped
// output. It is carried opaquely; verification belongs to the engine.
type ComSignature [ComSignatureSize]byte

// String returns the lowercase hex encoding.
func (s ComSignature) String() string {
	return hex.EncodeToString(s[:])
}

// MarshalJSON encodes the signature as a hex string.
func (s ComSignature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a hex string.
func (s *ComSignature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("invalid comsig: expected hex string")
	}
	var out ComSignature
	if err := decodeFixedHex(str, out[:]); err != nil {
		return fmt.Errorf("invalid comsig: %w", err)
	}
	*s = out
	return nil
}
