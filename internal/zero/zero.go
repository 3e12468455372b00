// Copyright (c) 2015-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package zero contains functions to clear private key material from byte
// slices and fixed-size arrays.
package zero

// Bytes sets all bytes in the passed slice to zero.  This is used to
// explicitly clear private key material from memory.
//
// In general, prefer to use the fixed-sized zeroing functions (Bytea*)
// when zeroing bytes as they are much more efficient than the variable
// sized zeroing func Bytes.
func Bytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Bytea32 clears the 32-byte array by filling it with the zero value.
// This is used to explicitly clear private key material and chain codes
// from memory.
func Bytea32(b *[32]byte) {
	*b = [32]byte{}
}

// Bytea33 clears the 33-byte array by filling it with the zero value.
// This is used to explicitly clear compressed public key material from
// memory.
func Bytea33(b *[33]byte) {
	*b = [33]byte{}
}

// Bytea64 clears the 64-byte array by filling it with the zero value.
// This is used to explicitly clear sensitive material such as seeds from
// memory.
func Bytea64(b *[64]byte) {
	*b = [64]byte{}
}
