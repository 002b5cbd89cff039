package auth

import (
	"strings"
	"testing"
)

func TestGenerateServiceKey(t *testing.T) {
	t.Parallel()

	generated, err := GenerateServiceKey(EnvLive)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !strings.HasPrefix(generated.Plaintext, "qk_live_") {
		t.Errorf("unexpected key prefix: %s", generated.Plaintext)
	}

	if len(generated.Prefix) != KeyPrefixLen {
		t.Errorf("prefix length = %d, want %d", len(generated.Prefix), KeyPrefixLen)
	}

	if !ValidateKeyFormat(generated.Plaintext) {
		t.Error("generated key does not match expected format")
	}

	if !strings.HasPrefix(generated.Hash, "$argon2id$") {
		t.Errorf("hash not in PHC format: %s", generated.Hash)
	}
}

func TestGenerateServiceKey_DefaultsToLive(t *testing.T) {
	t.Parallel()

	generated, err := GenerateServiceKey("staging")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !strings.HasPrefix(generated.Plaintext, "qk_live_") {
		t.Errorf("unknown env should default to live, got %s", generated.Plaintext)
	}
}

func TestParseServiceKey(t *testing.T) {
	t.Parallel()

	generated, err := GenerateServiceKey(EnvTest)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parsed, err := ParseServiceKey(generated.Plaintext)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if parsed.Env != EnvTest {
		t.Errorf("Env = %s, want %s", parsed.Env, EnvTest)
	}
	if parsed.Prefix != generated.Prefix {
		t.Errorf("Prefix = %s, want %s", parsed.Prefix, generated.Prefix)
	}
	if len(parsed.Secret) != KeySecretLen {
		t.Errorf("Secret length = %d, want %d", len(parsed.Secret), KeySecretLen)
	}
}

func TestParseServiceKey_Invalid(t *testing.T) {
	t.Parallel()

	invalid := []string{
		"",
		"qk_live_abc",
		"pk_live_7a9x3k_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
		"qk_prod_aabbcc_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
		"qk_live_ZZZZZZ_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
	}

	for _, key := range invalid {
		if _, err := ParseServiceKey(key); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestVerifyKey_RoundTrip(t *testing.T) {
	t.Parallel()

	generated, err := GenerateServiceKey(EnvLive)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	ok, err := VerifyKey(generated.Plaintext, generated.Hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Error("expected key to verify against its own hash")
	}

	ok, err = VerifyKey(generated.Plaintext+"x", generated.Hash)
	if err != nil {
		t.Fatalf("verify tampered: %v", err)
	}
	if ok {
		t.Error("expected tampered key to fail verification")
	}
}

func TestVerifyKey_MalformedHash(t *testing.T) {
	t.Parallel()

	if _, err := VerifyKey("qk_live_aabbcc_00000000000000000000000000000000", "not-a-phc-string"); err == nil {
		t.Error("expected error for malformed hash")
	}
}

func TestQuickHash(t *testing.T) {
	t.Parallel()

	h := QuickHash("some-key")
	if len(h) != 32 {
		t.Errorf("QuickHash length = %d, want 32", len(h))
	}
	if h != QuickHash("some-key") {
		t.Error("QuickHash should be deterministic")
	}
	if h == QuickHash("other-key") {
		t.Error("different inputs should hash differently")
	}
}
