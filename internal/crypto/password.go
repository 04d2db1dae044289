// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package crypto

import (
	"crypto/rand"
	"math"
	"math/big"
	"strings"
)

const (
	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars     = "0123456789"
	symbolChars    = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	ambiguousChars = "0O1lI"

	// MaxPasswordLength bounds generated password length.
	MaxPasswordLength = 1024

	// MaxPassphraseWords bounds the number of passphrase words.
	MaxPassphraseWords = 20
)

// PasswordOptions selects the character classes and constraints for one
// generated password.
type PasswordOptions struct {
	Length           int
	Lowercase        bool
	Uppercase        bool
	Digits           bool
	Symbols          bool
	ExcludeAmbiguous bool
	// ExcludeChars is removed from the pool after class assembly.
	ExcludeChars string
}

// DefaultPasswordOptions returns the options used when the caller does
// not specify any: 16 characters drawing from all four classes.
func DefaultPasswordOptions() PasswordOptions {
	return PasswordOptions{
		Length:    16,
		Lowercase: true,
		Uppercase: true,
		Digits:    true,
		Symbols:   true,
	}
}

// GeneratePassword produces a random password honoring opts. Every
// enabled class contributes at least one character and the final order
// is uniformly shuffled, so class positions leak nothing. Returns
// [ErrInvalidOptions] when the length is out of range or the exclusions
// empty a class pool.
func GeneratePassword(opts PasswordOptions) (string, error) {
	if opts.Length < 1 || opts.Length > MaxPasswordLength {
		return "", ErrInvalidOptions
	}

	classes := make([]string, 0, 4)
	for _, c := range []struct {
		enabled bool
		chars   string
	}{
		{opts.Lowercase, lowercaseChars},
		{opts.Uppercase, uppercaseChars},
		{opts.Digits, digitChars},
		{opts.Symbols, symbolChars},
	} {
		if !c.enabled {
			continue
		}
		pool := filterChars(c.chars, opts)
		if pool == "" {
			return "", ErrInvalidOptions
		}
		classes = append(classes, pool)
	}

	if len(classes) == 0 || opts.Length < len(classes) {
		return "", ErrInvalidOptions
	}

	full := strings.Join(classes, "")

	out := make([]byte, 0, opts.Length)
	// one guaranteed pick per enabled class
	for _, pool := range classes {
		ch, err := randomChar(pool)
		if err != nil {
			return "", err
		}
		out = append(out, ch)
	}
	for len(out) < opts.Length {
		ch, err := randomChar(full)
		if err != nil {
			return "", err
		}
		out = append(out, ch)
	}

	if err := shuffle(out); err != nil {
		return "", err
	}

	return string(out), nil
}

// PassphraseOptions selects the word count and separator for one
// generated passphrase.
type PassphraseOptions struct {
	Words     int
	Separator string
}

// GeneratePassphrase joins randomly chosen words from the built-in list
// with the separator. Words are chosen uniformly with replacement.
// Returns [ErrInvalidOptions] when the word count is out of range.
func GeneratePassphrase(opts PassphraseOptions) (string, error) {
	if opts.Words < 1 || opts.Words > MaxPassphraseWords {
		return "", ErrInvalidOptions
	}

	words := make([]string, opts.Words)
	for i := range words {
		n, err := randomInt(len(passphraseWords))
		if err != nil {
			return "", err
		}
		words[i] = passphraseWords[n]
	}

	return strings.Join(words, opts.Separator), nil
}

// EstimateEntropy returns the entropy in bits of a password generated
// with opts: length × log2(pool size). Returns 0 for options that
// cannot generate anything.
func EstimateEntropy(opts PasswordOptions) float64 {
	pool := 0
	for _, c := range []struct {
		enabled bool
		chars   string
	}{
		{opts.Lowercase, lowercaseChars},
		{opts.Uppercase, uppercaseChars},
		{opts.Digits, digitChars},
		{opts.Symbols, symbolChars},
	} {
		if c.enabled {
			pool += len(filterChars(c.chars, opts))
		}
	}

	if pool == 0 || opts.Length < 1 {
		return 0
	}

	return float64(opts.Length) * math.Log2(float64(pool))
}

func filterChars(chars string, opts PasswordOptions) string {
	var b strings.Builder
	for _, r := range chars {
		if opts.ExcludeAmbiguous && strings.ContainsRune(ambiguousChars, r) {
			continue
		}
		if strings.ContainsRune(opts.ExcludeChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func randomChar(pool string) (byte, error) {
	n, err := randomInt(len(pool))
	if err != nil {
		return 0, err
	}
	return pool[n], nil
}

// randomInt returns a uniform value in [0, max) from the OS CSPRNG.
func randomInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// shuffle is a Fisher-Yates shuffle driven by the CSPRNG.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return err
		}
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
