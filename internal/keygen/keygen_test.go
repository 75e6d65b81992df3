package keygen

import (
	"encoding/hex"
	"testing"
)

func TestGenerate(t *testing.T) {
	key, err := Generate(DefaultBytes)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(key) != 2*DefaultBytes {
		t.Errorf("len(key) = %d, want %d", len(key), 2*DefaultBytes)
	}
	if _, err := hex.DecodeString(key); err != nil {
		t.Errorf("key is not hex: %v", err)
	}

	other, _ := Generate(DefaultBytes)
	if key == other {
		t.Error("two generated keys are identical")
	}
}

func TestGenerateRejectsBadSizes(t *testing.T) {
	for _, n := range []int{0, -1, MinBytes - 1, MaxBytes + 1} {
		if _, err := Generate(n); err == nil {
			t.Errorf("Generate(%d) expected error", n)
		}
	}
}
