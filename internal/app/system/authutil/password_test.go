package authutil

import (
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"valid", "s3cret", nil},
		{"valid longest", strings.Repeat("a", 72), nil},
		{"valid with spaces", "crash log reader", nil},
		{"too short", "abcde", ErrKeyTooShort},
		{"empty", "", ErrKeyTooShort},
		{"too long", strings.Repeat("a", 73), ErrKeyTooLong},
		{"common", "password", ErrKeyCommon},
		{"common uppercase", "CHANGEME", ErrKeyCommon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateKey(tt.key); err != tt.wantErr {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestHashKey(t *testing.T) {
	hash, err := HashKey("s3cret")
	if err != nil {
		t.Fatalf("HashKey() error = %v", err)
	}
	if hash == "s3cret" {
		t.Error("HashKey() returned the key unchanged")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("HashKey() = %q, want a bcrypt hash", hash)
	}

	other, err := HashKey("s3cret")
	if err != nil {
		t.Fatalf("HashKey() error = %v", err)
	}
	if hash == other {
		t.Error("HashKey() should salt each hash")
	}
}

func TestCheckKeyHash(t *testing.T) {
	hash, err := HashKey("s3cret")
	if err != nil {
		t.Fatalf("HashKey() error = %v", err)
	}

	tests := []struct {
		name string
		key  string
		hash string
		want bool
	}{
		{"match", "s3cret", hash, true},
		{"wrong key", "s3cret!", hash, false},
		{"empty key", "", hash, false},
		{"not a hash", "s3cret", "s3cret", false},
		{"empty hash", "s3cret", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckKeyHash(tt.key, tt.hash); got != tt.want {
				t.Errorf("CheckKeyHash(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestEqualKey(t *testing.T) {
	tests := []struct {
		key, stored string
		want        bool
	}{
		{"s3cret", "s3cret", true},
		{"s3cret", "S3cret", false},
		{"s3cre", "s3cret", false},
		{"", "s3cret", false},
	}
	for _, tt := range tests {
		if got := EqualKey(tt.key, tt.stored); got != tt.want {
			t.Errorf("EqualKey(%q, %q) = %v, want %v", tt.key, tt.stored, got, tt.want)
		}
	}
}
