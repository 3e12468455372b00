// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyring

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"

	"github.com/btcsuite/tapwallet/netparams"
)

const (
	testMnemonic = "cook voyage document eight skate token alien guide " +
		"drink uncle term abuse"
	testPath = "0'/0/0"
)

// newTestKeyRing derives the reference regtest account used throughout the
// package tests.
func newTestKeyRing(t *testing.T) *KeyRing {
	t.Helper()

	k, err := NewFromMnemonic(testMnemonic, "", testPath, netparams.RegTest)
	require.NoError(t, err)
	return k
}

// TestDeriveRegTestAccount checks the shape and determinism of the derived
// account: a bcrt1p address, a 33-byte compressed public key and the same
// result on every derivation from the same inputs.
func TestDeriveRegTestAccount(t *testing.T) {
	k := newTestKeyRing(t)

	addr := k.TaprootAddress().EncodeAddress()
	if !strings.HasPrefix(addr, "bcrt1p") {
		t.Fatalf("derived address %q is not a regtest taproot "+
			"address", addr)
	}

	pub, err := k.PubKey()
	require.NoError(t, err)
	require.Len(t, pub, 33)
	require.Contains(t, []byte{0x02, 0x03}, pub[0])

	internal, err := k.InternalKey()
	require.NoError(t, err)
	require.Len(t, internal, 32)
	require.Equal(t, pub[1:], internal)

	require.Equal(t, "m/86'/1'/0'/0/0", k.DerivationPath())
	require.Equal(t, netparams.RegTest, k.Network())

	// The address must decode as a valid bech32m address for the
	// regression test network.
	decoded, err := btcutil.DecodeAddress(
		addr, &chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	require.IsType(t, &btcutil.AddressTaproot{}, decoded)
	require.True(t, decoded.IsForNet(&chaincfg.RegressionNetParams))

	// Re-deriving from the same mnemonic, path and network must be bit
	// identical.
	again := newTestKeyRing(t)
	require.Equal(t, addr, again.TaprootAddress().EncodeAddress())
	againPub, err := again.PubKey()
	require.NoError(t, err)
	require.Equal(t, pub, againPub)
}

// TestSeedAndMnemonicAgree checks that constructing from the raw BIP-39
// seed yields the same account as constructing from the mnemonic.
func TestSeedAndMnemonicAgree(t *testing.T) {
	fromMnemonic := newTestKeyRing(t)

	seed := bip39.NewSeed(testMnemonic, "")
	require.Len(t, seed, 64)

	fromSeed, err := NewFromSeed(seed, testPath, netparams.RegTest)
	require.NoError(t, err)

	require.Equal(t,
		fromMnemonic.TaprootAddress().EncodeAddress(),
		fromSeed.TaprootAddress().EncodeAddress(),
	)
}

// TestNetworkChangesAddress checks that the same key material produces
// different addresses per network, with the right prefixes.
func TestNetworkChangesAddress(t *testing.T) {
	tests := []struct {
		network netparams.Network
		prefix  string
	}{
		{netparams.MainNet, "bc1p"},
		{netparams.TestNet, "tb1p"},
		{netparams.RegTest, "bcrt1p"},
	}

	for _, test := range tests {
		k, err := NewFromMnemonic(
			testMnemonic, "", testPath, test.network,
		)
		require.NoError(t, err)

		addr := k.TaprootAddress().EncodeAddress()
		if !strings.HasPrefix(addr, test.prefix) {
			t.Errorf("network %v: address %q missing prefix %q",
				test.network, addr, test.prefix)
		}
	}
}

// TestInvalidMnemonic checks the BIP-39 checksum gate.
func TestInvalidMnemonic(t *testing.T) {
	// Swap two words so the checksum no longer matches.
	words := strings.Fields(testMnemonic)
	words[0], words[1] = words[1], words[0]

	_, err := NewFromMnemonic(
		strings.Join(words, " "), "", testPath, netparams.RegTest,
	)
	require.ErrorIs(t, err, ErrInvalidSeedPhrase)

	_, err = NewFromMnemonic(
		"definitely not a mnemonic", "", testPath, netparams.RegTest,
	)
	require.ErrorIs(t, err, ErrInvalidSeedPhrase)
}

// TestSignVerifyMessage exercises the ECDSA message round trip, the
// mismatch case and malformed signature handling.
func TestSignVerifyMessage(t *testing.T) {
	k := newTestKeyRing(t)

	msg := "craft align it accuracy dream boat another"
	sig, err := k.SignMessage(msg)
	require.NoError(t, err)

	ok, err := k.VerifyMessage(msg, sig)
	require.NoError(t, err)
	require.True(t, ok)

	// A different message must not verify.
	ok, err = k.VerifyMessage(msg+"!", sig)
	require.NoError(t, err)
	require.False(t, ok)

	// Unparseable signatures fail with ErrMalformedSignature.
	_, err = k.VerifyMessage(msg, "zz not hex")
	require.ErrorIs(t, err, ErrMalformedSignature)

	_, err = k.VerifyMessage(msg, sig[:8])
	require.ErrorIs(t, err, ErrMalformedSignature)
}

// TestTweakedPrivKey checks that the tweaked private key commits to the
// same output key the address encodes, regardless of the parity of the
// internal key.
func TestTweakedPrivKey(t *testing.T) {
	// Several paths so both internal key parities show up.
	paths := []string{"0'/0/0", "0'/0/1", "0'/0/2", "0'/1/0", "1'/0/0"}

	for _, path := range paths {
		k, err := NewFromMnemonic(
			testMnemonic, "", path, netparams.RegTest,
		)
		require.NoError(t, err, "path %s", path)

		tweaked, err := k.TweakedPrivKey()
		require.NoError(t, err, "path %s", path)

		// The x-only serialization of the tweaked key's public key
		// must equal the witness program of the derived address.
		gotOutputKey := schnorr.SerializePubKey(tweaked.PubKey())
		require.Equal(t,
			k.TaprootAddress().WitnessProgram(), gotOutputKey,
			"path %s: tweaked key does not match output key",
			path,
		)
	}
}

// TestZero checks that wiping the key ring disables every key operation.
func TestZero(t *testing.T) {
	k := newTestKeyRing(t)
	addr := k.TaprootAddress().EncodeAddress()

	k.Zero()

	_, err := k.SignMessage("msg")
	require.ErrorIs(t, err, ErrKeyRingZeroed)

	_, err = k.VerifyMessage("msg", "00")
	require.ErrorIs(t, err, ErrKeyRingZeroed)

	_, err = k.TweakedPrivKey()
	require.ErrorIs(t, err, ErrKeyRingZeroed)

	_, err = k.PubKey()
	require.ErrorIs(t, err, ErrKeyRingZeroed)

	_, err = k.InternalKey()
	require.ErrorIs(t, err, ErrKeyRingZeroed)

	// The address itself is not a secret and stays readable.
	require.Equal(t, addr, k.TaprootAddress().EncodeAddress())

	// Zero is idempotent.
	k.Zero()

	_, err = k.SignMessage("msg")
	require.ErrorIs(t, err, ErrKeyRingZeroed)
}
