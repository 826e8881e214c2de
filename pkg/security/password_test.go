package security

import (
	"strings"
	"testing"

	"github.com/youssefhamdan/tijara-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	// Small parameters keep the unit tests fast.
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func TestHashAndVerify(t *testing.T) {
	cfg := testPasswordConfig()

	hash, err := HashPassword("correct horse", cfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := VerifyPassword("correct horse", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("wrong horse", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	if _, err := HashPassword("", testPasswordConfig()); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("pw", "$bcrypt$nonsense"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestGenerateGuestPassword(t *testing.T) {
	pw, err := GenerateGuestPassword(24)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(pw) != 24 {
		t.Fatalf("unexpected length %d", len(pw))
	}

	other, err := GenerateGuestPassword(24)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if pw == other {
		t.Fatal("expected two generated passwords to differ")
	}

	if _, err := GenerateGuestPassword(0); err == nil {
		t.Fatal("expected error for non-positive length")
	}
}
