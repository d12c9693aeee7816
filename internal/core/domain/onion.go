package domain

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Onion is an onion-routed swap packet. The relay treats the encrypted
// payloads as opaque; only the outer envelope is decoded here.
type Onion struct {
	// EphemeralPubKey is the sender's x25519 key for the outer layer.
	EphemeralPubKey [PublicKeySize]byte
	// Commit is the output being swapped.
	Commit Commitment
	// EncPayloads holds one encrypted payload per mix hop.
	EncPayloads [][]byte
}

type onionJSON struct {
	PubKey *string  `json:"pubkey"`
	Commit *string  `json:"commit"`
	Data   []string `json:"data"`
}

// MarshalJSON encodes the onion in its hex wire form.
func (o Onion) MarshalJSON() ([]byte, error) {
	pub := hex.EncodeToString(o.EphemeralPubKey[:])
	commit := o.Commit.String()
	data := make([]string, len(o.EncPayloads))
	for i, p := range o.EncPayloads {
		data[i] = hex.EncodeToString(p)
	}
	return json.Marshal(onionJSON{PubKey: &pub, Commit: &commit, Data: data})
}

// UnmarshalJSON decodes the hex wire form.
func (o *Onion) UnmarshalJSON(data []byte) error {
	var raw onionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid onion: %w", err)
	}
	if raw.PubKey == nil {
		return errors.New("invalid onion: missing field `pubkey`")
	}
	if raw.Commit == nil {
		return errors.New("invalid onion: missing field `commit`")
	}
	if raw.Data == nil {
		return errors.New("invalid onion: missing field `data`")
	}

	var out Onion
	if err := decodeFixedHex(*raw.PubKey, out.EphemeralPubKey[:]); err != nil {
		return fmt.Errorf("invalid onion: pubkey: %w", err)
	}
	commit, err := ParseCommitment(*raw.Commit)
	if err != nil {
		return fmt.Errorf("invalid onion: %w", err)
	}
	out.Commit = commit

	out.EncPayloads = make([][]byte, len(raw.Data))
	for i, s := range raw.Data {
		p, err := hex.DecodeString(s)
		if err != nil {
			return fmt.Errorf("invalid onion: data[%d]: invalid hex: %w", i, err)
		}
		out.EncPayloads[i] = p
	}

	*o = out
	return nil
}
