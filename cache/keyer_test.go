package cache

import (
	"strings"
	"testing"
)

func TestPrefixKeyer_Key(t *testing.T) {
	k := NewPrefixKeyer("similar:")

	tests := []struct {
		id      string
		want    string
		wantErr bool
	}{
		{"1", "similar:1", false},
		{"sku-42", "similar:sku-42", false},
		{"", "", true},
		{"  ", "", true},
		{"a\nb", "", true},
	}

	for _, tt := range tests {
		got, err := k.Key(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("Key(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestPrefixKeyer_LongIDsAreHashed(t *testing.T) {
	k := NewPrefixKeyer("similar")
	long := strings.Repeat("x", MaxKeyLength)

	key, err := k.Key(long)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if !strings.HasPrefix(key, "similar:sha256:") {
		t.Errorf("Key() = %q, want sha256 form", key)
	}
	if err := ValidateKey(key); err != nil {
		t.Errorf("ValidateKey(%q) = %v", key, err)
	}

	again, _ := k.Key(long)
	if again != key {
		t.Error("Key() is not deterministic")
	}
	other, _ := k.Key(long + "y")
	if other == key {
		t.Error("distinct ids produced the same key")
	}
}
