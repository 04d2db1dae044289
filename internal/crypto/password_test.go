package crypto

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGeneratePassword_Length verifies the requested length is honored.
func TestGeneratePassword_Length(t *testing.T) {
	for _, length := range []int{4, 16, 64, 1024} {
		opts := DefaultPasswordOptions()
		opts.Length = length

		pw, err := GeneratePassword(opts)
		require.NoError(t, err)
		assert.Len(t, pw, length)
	}
}

// TestGeneratePassword_EveryClassPresent verifies at least one
// character from each enabled class appears.
func TestGeneratePassword_EveryClassPresent(t *testing.T) {
	opts := DefaultPasswordOptions()
	opts.Length = 8

	for i := 0; i < 50; i++ {
		pw, err := GeneratePassword(opts)
		require.NoError(t, err)

		assert.True(t, strings.ContainsAny(pw, lowercaseChars), "missing lowercase: %q", pw)
		assert.True(t, strings.ContainsAny(pw, uppercaseChars), "missing uppercase: %q", pw)
		assert.True(t, strings.ContainsAny(pw, digitChars), "missing digit: %q", pw)
		assert.True(t, strings.ContainsAny(pw, symbolChars), "missing symbol: %q", pw)
	}
}

// TestGeneratePassword_ExcludeAmbiguous verifies none of 0O1lI appear.
func TestGeneratePassword_ExcludeAmbiguous(t *testing.T) {
	opts := DefaultPasswordOptions()
	opts.Length = 256
	opts.ExcludeAmbiguous = true

	pw, err := GeneratePassword(opts)
	require.NoError(t, err)
	assert.False(t, strings.ContainsAny(pw, ambiguousChars), "ambiguous char leaked: %q", pw)
}

func TestGeneratePassword_ExcludeChars(t *testing.T) {
	opts := PasswordOptions{Length: 128, Lowercase: true, ExcludeChars: "abcde"}

	pw, err := GeneratePassword(opts)
	require.NoError(t, err)
	assert.False(t, strings.ContainsAny(pw, "abcde"))
}

func TestGeneratePassword_SingleClass(t *testing.T) {
	opts := PasswordOptions{Length: 32, Digits: true}

	pw, err := GeneratePassword(opts)
	require.NoError(t, err)
	for _, r := range pw {
		assert.Contains(t, digitChars, string(r))
	}
}

func TestGeneratePassword_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts PasswordOptions
	}{
		{"zero length", PasswordOptions{Length: 0, Lowercase: true}},
		{"too long", PasswordOptions{Length: MaxPasswordLength + 1, Lowercase: true}},
		{"no classes", PasswordOptions{Length: 10}},
		{"class emptied by exclusion", PasswordOptions{Length: 10, Digits: true, ExcludeChars: digitChars}},
		{"length below class count", PasswordOptions{Length: 2, Lowercase: true, Uppercase: true, Digits: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GeneratePassword(tt.opts)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

// TestGeneratePassphrase verifies word count and separator handling.
func TestGeneratePassphrase(t *testing.T) {
	phrase, err := GeneratePassphrase(PassphraseOptions{Words: 5, Separator: "-"})
	require.NoError(t, err)

	words := strings.Split(phrase, "-")
	require.Len(t, words, 5)
	for _, w := range words {
		assert.Contains(t, passphraseWords, w)
	}
}

func TestGeneratePassphrase_SingleWord(t *testing.T) {
	phrase, err := GeneratePassphrase(PassphraseOptions{Words: 1, Separator: " "})
	require.NoError(t, err)
	assert.Contains(t, passphraseWords, phrase)
}

func TestGeneratePassphrase_InvalidWordCount(t *testing.T) {
	for _, n := range []int{0, -1, MaxPassphraseWords + 1} {
		_, err := GeneratePassphrase(PassphraseOptions{Words: n})
		assert.ErrorIs(t, err, ErrInvalidOptions)
	}
}

// TestEstimateEntropy checks length × log2(pool) for known pools.
func TestEstimateEntropy(t *testing.T) {
	tests := []struct {
		name     string
		opts     PasswordOptions
		expected float64
	}{
		{
			name:     "digits only",
			opts:     PasswordOptions{Length: 10, Digits: true},
			expected: 10 * math.Log2(10),
		},
		{
			name:     "lower and upper",
			opts:     PasswordOptions{Length: 16, Lowercase: true, Uppercase: true},
			expected: 16 * math.Log2(52),
		},
		{
			name:     "no classes",
			opts:     PasswordOptions{Length: 16},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, EstimateEntropy(tt.opts), 0.001)
		})
	}
}

func TestEstimateEntropy_ExclusionsShrinkPool(t *testing.T) {
	base := PasswordOptions{Length: 10, Digits: true}
	excluded := PasswordOptions{Length: 10, Digits: true, ExcludeAmbiguous: true}

	assert.Greater(t, EstimateEntropy(base), EstimateEntropy(excluded))
}
