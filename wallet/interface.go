// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/btcsuite/tapwallet/electrum"
)

// ChainSource is the subset of the electrum gateway the account consumes.
// *electrum.Client satisfies it; tests substitute a mock.
type ChainSource interface {
	// EstimateFeeRate returns a next-block fee rate in satoshis per
	// virtual byte, never below one.
	EstimateFeeRate(ctx context.Context) (btcutil.Amount, error)

	// ScriptBalance returns the balance of the script paying the given
	// address.
	ScriptBalance(ctx context.Context, addr string) (*electrum.Balance,
		error)

	// ListUnspent returns the unspent outputs paying the given address
	// in server order.
	ListUnspent(ctx context.Context, addr string) ([]*electrum.Unspent,
		error)

	// History returns the transaction history of the given address in
	// server order, newest first.
	History(ctx context.Context, addr string) ([]*electrum.HistoryItem,
		error)

	// GetTransaction fetches and decodes a transaction by its
	// big-endian hex id.
	GetTransaction(ctx context.Context, txid string) (*wire.MsgTx, error)

	// Broadcast submits a raw transaction in hex and returns its id.
	Broadcast(ctx context.Context, rawHex string) (string, error)
}
