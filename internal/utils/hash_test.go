// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestHashToken_Deterministic(t *testing.T) {
	a := HashToken("some.refresh.token")
	b := HashToken("some.refresh.token")

	if a != b {
		t.Errorf("expected identical digests, got %s and %s", a, b)
	}
}

func TestHashToken_Distinct(t *testing.T) {
	a := HashToken("token-one")
	b := HashToken("token-two")

	if a == b {
		t.Error("expected different digests for different tokens")
	}
}

func TestHashToken_KnownValue(t *testing.T) {
	sum := sha256.Sum256([]byte("abc"))
	want := hex.EncodeToString(sum[:])

	if got := HashToken("abc"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestHashToken_Length(t *testing.T) {
	if got := HashToken(""); len(got) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(got))
	}
}
