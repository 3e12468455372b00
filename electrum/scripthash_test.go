// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package electrum

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

// TestScriptHash checks the electrum script hash derivation against an
// independent rendering of reverse_bytes(sha256(script_pubkey)).
func TestScriptHash(t *testing.T) {
	addr := testAddress(t, 7)

	got, err := ScriptHash(addr, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	require.Len(t, got, 64)

	decoded, err := btcutil.DecodeAddress(
		addr, &chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(decoded)
	require.NoError(t, err)

	digest := sha256.Sum256(pkScript)
	want := ""
	for i := len(digest) - 1; i >= 0; i-- {
		want += fmt.Sprintf("%02x", digest[i])
	}
	require.Equal(t, want, got)

	// Distinct scripts must hash to distinct values.
	other, err := ScriptHash(
		testAddress(t, 8), &chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	require.NotEqual(t, got, other)
}

// TestScriptHashWrongNetwork checks that addresses from another network
// are rejected before any hashing happens.
func TestScriptHashWrongNetwork(t *testing.T) {
	addr := testAddress(t, 7)

	_, err := ScriptHash(addr, &chaincfg.MainNetParams)
	require.Error(t, err)

	_, err = ScriptHash("not an address", &chaincfg.RegressionNetParams)
	require.Error(t, err)
}
