package util

// WipeBytes zeroes key material and decrypted session data once used.
func WipeBytes(b []byte) { clear(b) }
