package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Wire sizes of the opaque cryptographic values carried by a swap request.
const (
	CommitmentSize   = 33
	PublicKeySize    = 32
	ComSignatureSize = 97
)

// Commitment is a Pedersen commitment identifying an output.
type Commitment [CommitmentSize]byte

// ParseCommitment decodes a hex-encoded commitment.
func ParseCommitment(s string) (Commitment, error) {
	var c Commitment
	if err := decodeFixedHex(s, c[:]); err != nil {
		return Commitment{}, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}

// String returns the lowercase hex encoding.
func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

// MarshalJSON encodes the commitment as a hex string.
func (c Commitment) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a hex string.
func (c *Commitment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("commit: expected hex string")
	}
	parsed, err := ParseCommitment(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// decodeFixedHex decodes s into dst, requiring an exact length match.
func decodeFixedHex(s string, dst []byte) error {
	if hex.DecodedLen(len(s)) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), hex.DecodedLen(len(s)))
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	return nil
}
