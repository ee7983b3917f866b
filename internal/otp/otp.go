// Package otp generates the one-time codes used for email verification and
// password reset.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Validity is how long a generated code stays usable.
const Validity = 15 * time.Minute

// codeSpace is the number of distinct 6-digit codes (100000-999999).
const codeSpace = 900000

// Generate returns a 6-digit numeric code drawn uniformly from
// 100000-999999 and its expiry timestamp. The code never has a leading zero,
// so its string form is always exactly six characters.
func Generate() (string, time.Time) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is
		// broken; there is no meaningful fallback for a security code.
		panic(fmt.Sprintf("otp: reading random source: %v", err))
	}

	code := fmt.Sprintf("%06d", n.Int64()+100000)
	return code, time.Now().Add(Validity)
}
