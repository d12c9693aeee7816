package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func testOnionJSON(commitHex string) string {
	return `{"pubkey":"` + strings.Repeat("ab", PublicKeySize) +
		`","commit":"` + commitHex + `","data":["00ff","1234"]}`
}

func TestOnion_UnmarshalJSON(t *testing.T) {
	commitHex := "08" + strings.Repeat("11", CommitmentSize-1)

	var o Onion
	if err := json.Unmarshal([]byte(testOnionJSON(commitHex)), &o); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if o.Commit.String() != commitHex {
		t.Errorf("Commit = %s, want %s", o.Commit, commitHex)
	}
	if len(o.EncPayloads) != 2 || o.EncPayloads[0][1] != 0xff {
		t.Errorf("EncPayloads = %x", o.EncPayloads)
	}

	out, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != testOnionJSON(commitHex) {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestOnion_UnmarshalJSON_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"not an object", `"abc"`, "invalid onion"},
		{"missing pubkey", `{"commit":"00","data":[]}`, "missing field `pubkey`"},
		{"missing commit", `{"pubkey":"00","data":[]}`, "missing field `commit`"},
		{"missing data", `{"pubkey":"00","commit":"00"}`, "missing field `data`"},
		{"short commit", testOnionJSON("0811"), "commit: expected 33 bytes"},
		{"bad hex commit", testOnionJSON(strings.Repeat("zz", CommitmentSize)), "invalid hex"},
		{
			"bad payload",
			`{"pubkey":"` + strings.Repeat("ab", PublicKeySize) + `","commit":"` +
				strings.Repeat("08", CommitmentSize) + `","data":["xyz"]}`,
			"data[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Onion
			err := json.Unmarshal([]byte(tt.input), &o)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestComSignature_UnmarshalJSON(t *testing.T) {
	valid := `"` + strings.Repeat("0a", ComSignatureSize) + `"`

	var sig ComSignature
	if err := json.Unmarshal([]byte(valid), &sig); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if sig[96] != 0x0a {
		t.Errorf("last byte = %x", sig[96])
	}

	for _, bad := range []string{`"0a0a"`, `123`, `{}`} {
		if err := json.Unmarshal([]byte(bad), &sig); err == nil {
			t.Errorf("Unmarshal(%s) expected error", bad)
		} else if !strings.HasPrefix(err.Error(), "invalid comsig") {
			t.Errorf("Unmarshal(%s) error = %q", bad, err)
		}
	}
}

func TestNewSwapEntry(t *testing.T) {
	var o Onion
	o.Commit[0] = 9
	var sig ComSignature

	e := NewSwapEntry(&o, &sig)
	if e.Status != SwapPending {
		t.Errorf("Status = %s, want pending", e.Status)
	}
	if e.Commit != o.Commit {
		t.Error("entry commit should match onion commit")
	}
	if e.CreatedAt == 0 {
		t.Error("CreatedAt should be set")
	}
}
