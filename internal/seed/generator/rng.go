package generator

import (
	"encoding/base32"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"
)

// NewSeededRNG creates a seeded random number generator. If seed is 0, uses
// current time and prints the seed for reproducibility.
func NewSeededRNG(seed int64, verbose bool) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
		if verbose {
			fmt.Fprintf(os.Stderr, "Using seed: %d\n", seed)
		}
	}
	return rand.New(rand.NewSource(seed))
}

// newID derives a URL-safe identifier from the generator's rng so the same
// seed always yields the same id stream. The identifier is 26 characters
// long, lowercase base32 over 16 bytes, with no padding.
func newID(rng *rand.Rand) string {
	var raw [16]byte
	rng.Read(raw[:])
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw[:])
	return strings.ToLower(encoded)
}
