package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "pw123456" {
		t.Fatal("hash equals plaintext")
	}

	if !CheckPassword(hash, "pw123456") {
		t.Fatal("correct password did not verify")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Fatal("wrong password verified")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	second, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if first == second {
		t.Fatal("two hashes of the same plaintext are identical, expected salted digests")
	}
	if !CheckPassword(first, "pw123456") || !CheckPassword(second, "pw123456") {
		t.Fatal("salted digests did not both verify")
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	if err := ValidatePassword("pw123456"); err != nil {
		t.Fatalf("eight characters should pass: %v", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidatePassword(string(long)); err == nil {
		t.Fatal("expected error for password over 72 bytes")
	}
}
