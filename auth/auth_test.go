// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateID() error = %v", err)
			}
			if len(id) != tt.wantLen {
				t.Errorf("GenerateID() length = %d, want %d", len(id), tt.wantLen)
			}
			// Verify it's valid hex
			for _, c := range id {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("GenerateID() contains invalid hex char: %c", c)
				}
			}
		})
	}

	// Test randomness - two IDs should be different
	id1, _ := GenerateID(16)
	id2, _ := GenerateID(16)
	if id1 == id2 {
		t.Error("GenerateID() produced duplicate IDs (extremely unlikely)")
	}
}


func TestGenerateMembershipID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := GenerateMembershipID()
		if err != nil {
			t.Fatalf("GenerateMembershipID() error = %v", err)
		}
		if !strings.HasPrefix(id, MembershipPrefix) {
			t.Fatalf("GenerateMembershipID() = %q, want prefix %q", id, MembershipPrefix)
		}
		digits := strings.TrimPrefix(id, MembershipPrefix)
		if len(digits) != 6 {
			t.Fatalf("GenerateMembershipID() = %q, want 6 digits", id)
		}
		if digits[0] == '0' {
			t.Errorf("GenerateMembershipID() = %q, leading zero", id)
		}
		for _, c := range digits {
			if c < '0' || c > '9' {
				t.Errorf("GenerateMembershipID() contains non-digit: %c", c)
			}
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Error("GenerateMembershipID() produced a single value over 50 calls")
	}
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"ok", "secret1", nil},
		{"minimum length", "123456", nil},
		{"too short", "12345", ErrWeakPassword},
		{"empty", "", ErrWeakPassword},
		{"over bcrypt limit", strings.Repeat("x", 73), ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("HashPassword() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if hash == tt.password {
				t.Error("HashPassword() returned the plaintext")
			}
			if err := CheckPassword(hash, tt.password); err != nil {
				t.Errorf("CheckPassword() with correct password error = %v", err)
			}
			if err := CheckPassword(hash, tt.password+"x"); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("CheckPassword() with wrong password error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestHashIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		salt string
	}{
		{"IPv4", "192.168.1.1", "ip-salt"},
		{"IPv6", "2001:0db8:85a3::8a2e:0370:7334", "ip-salt"},
		{"localhost", "127.0.0.1", "ip-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := HashIP(tt.ip, tt.salt)

			// Should not be empty
			if hash == "" {
				t.Error("HashIP() returned empty string")
			}

			// Should be 16 hex characters (8 bytes * 2)
			if len(hash) != 16 {
				t.Errorf("HashIP() length = %d, want 16", len(hash))
			}

			// Should be valid hex
			for _, c := range hash {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("HashIP() contains invalid hex char: %c", c)
				}
			}

			// Should be deterministic
			hash2 := HashIP(tt.ip, tt.salt)
			if hash != hash2 {
				t.Error("HashIP() is not deterministic")
			}
		})
	}

	// Different IPs should produce different hashes
	hash1 := HashIP("192.168.1.1", "salt")
	hash2 := HashIP("192.168.1.2", "salt")
	if hash1 == hash2 {
		t.Error("HashIP() produced same hash for different IPs")
	}

	// Different salts should produce different hashes
	hash3 := HashIP("192.168.1.1", "salt1")
	hash4 := HashIP("192.168.1.1", "salt2")
	if hash3 == hash4 {
		t.Error("HashIP() produced same hash for different salts")
	}
}

// Benchmark tests
func BenchmarkGenerateID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateID(16)
	}
}

func BenchmarkGenerateMembershipID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateMembershipID()
	}
}
