// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package electrum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// ScriptHash converts an address into the script hash the electrum
// protocol addresses its indexes by: the SHA-256 of the output script,
// with the byte order reversed, as hex.
func ScriptHash(addr string, params *chaincfg.Params) (string, error) {
	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if !decoded.IsForNet(params) {
		return "", fmt.Errorf("address %q is not valid for network "+
			"%s", addr, params.Name)
	}

	pkScript, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return "", err
	}
	return scriptHash(pkScript), nil
}

// scriptHash hashes a raw output script into electrum's reversed-hex
// form.
func scriptHash(pkScript []byte) string {
	digest := sha256.Sum256(pkScript)
	for i, j := 0, len(digest)-1; i < j; i, j = i+1, j-1 {
		digest[i], digest[j] = digest[j], digest[i]
	}
	return hex.EncodeToString(digest[:])
}
