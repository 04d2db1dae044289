package crypto

// Zeroize overwrites b in place. Callers use it to drop key material
// and plaintext as soon as it is no longer needed; the compiler cannot
// prove the writes dead because b escapes through the call.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
