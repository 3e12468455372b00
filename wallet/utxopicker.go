// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// credit is a spendable output of the account, fully described for
// signing: the exact previous output script is carried verbatim because
// the witness commitment covers it.
type credit struct {
	outPoint wire.OutPoint
	amount   btcutil.Amount
	pkScript []byte
}

// pickUtxos selects unspent outputs covering the target amount.  The
// unspent list is walked in server order, first fit, no optimization.
// Each chosen output's funding transaction is fetched so the previous
// output script and value are taken from the source of truth rather than
// reconstructed.
//
// The target does not include the fee: when the final fee pushes the
// total over the selected value the spend fails with
// ErrInsufficientBalance rather than reselecting.
func (a *Account) pickUtxos(ctx context.Context,
	target btcutil.Amount) ([]*credit, error) {

	unspent, err := a.chain.ListUnspent(ctx, a.address)
	if err != nil {
		return nil, err
	}
	if len(unspent) == 0 {
		return nil, ErrNoUnspent
	}

	var (
		credits []*credit
		total   btcutil.Amount
	)
	for _, utxo := range unspent {
		if total >= target {
			break
		}

		hash, err := chainhash.NewHashFromStr(utxo.TxID)
		if err != nil {
			return nil, fmt.Errorf("invalid unspent txid %q: %w",
				utxo.TxID, err)
		}

		prevTx, err := a.chain.GetTransaction(ctx, utxo.TxID)
		if err != nil {
			return nil, err
		}
		if utxo.Vout >= uint32(len(prevTx.TxOut)) {
			return nil, fmt.Errorf("unspent output %s:%d not "+
				"present in funding transaction", utxo.TxID,
				utxo.Vout)
		}
		prevOut := prevTx.TxOut[utxo.Vout]

		credits = append(credits, &credit{
			outPoint: wire.OutPoint{
				Hash:  *hash,
				Index: utxo.Vout,
			},
			amount:   btcutil.Amount(prevOut.Value),
			pkScript: prevOut.PkScript,
		})
		total += btcutil.Amount(prevOut.Value)
	}

	log.Debugf("Selected %d of %d unspent outputs totaling %v for "+
		"target %v", len(credits), len(unspent), total, target)

	return credits, nil
}
