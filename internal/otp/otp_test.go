package otp

import (
	"strconv"
	"testing"
	"time"
)

func TestGenerate_Format(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1000; i++ {
		code, _ := Generate()

		if len(code) != 6 {
			t.Fatalf("code %q is not 6 characters", code)
		}

		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d outside 100000-999999", n)
		}
	}
}

func TestGenerate_Expiry(t *testing.T) {
	t.Parallel()

	before := time.Now()
	_, expiry := Generate()
	after := time.Now()

	if expiry.Before(before.Add(Validity)) || expiry.After(after.Add(Validity)) {
		t.Fatalf("expiry %v not within %v of generation time", expiry, Validity)
	}
}

func TestGenerate_Varies(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, _ := Generate()
		seen[code] = true
	}

	// 50 draws from a space of 900000 collapsing to a single value would
	// mean the random source is broken.
	if len(seen) < 2 {
		t.Fatalf("expected varied codes, got %d distinct values", len(seen))
	}
}
