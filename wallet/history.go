// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightninglabs/neutrino/cache/lru"
	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/btcsuite/tapwallet/electrum"
)

// TransferDirection tags a transfer record as money entering or leaving
// the account.
type TransferDirection string

const (
	// DirectionIncoming marks an output paying the account in a
	// transaction that spends none of the account's outputs.
	DirectionIncoming TransferDirection = "incoming"

	// DirectionOutgoing marks an output paying a third party in a
	// transaction that spends the account's outputs.
	DirectionOutgoing TransferDirection = "outgoing"
)

// TransferQuery filters and paginates GetTransfers.
type TransferQuery struct {
	// Direction keeps only records of the given direction.  Empty
	// keeps all.
	Direction TransferDirection

	// Limit caps the number of returned records.  Zero means no cap.
	Limit int

	// Skip drops the leading entries of the history before records are
	// resolved.
	Skip int
}

// Transfer is a single value movement: one output of one transaction,
// classified from the account's point of view.
type Transfer struct {
	// TxID is the big-endian hex id of the transaction.
	TxID string

	// Address is the account's own address.
	Address string

	// OutputIndex is the index of the output within the transaction.
	OutputIndex uint32

	// BlockHeight is the confirmation height, zero while unconfirmed.
	BlockHeight uint32

	// Amount is the output value.
	Amount btcutil.Amount

	// Direction classifies the record.
	Direction TransferDirection

	// Fee is the fee of the whole transaction, when every previous
	// output could be resolved.
	Fee fn.Option[btcutil.Amount]

	// Counterparty is the other side of the transfer: the recipient
	// address for outgoing records, the account's own address for
	// incoming ones.
	Counterparty fn.Option[string]
}

// prevTxCacheSize bounds the per-request transaction cache used while
// resolving history.  Outgoing transactions commonly spend several
// outputs of the same funding transaction, so a small cache saves most
// of the repeated lookups within one page.
const prevTxCacheSize = 256

// cachedTx wraps a transaction for the LRU cache.
type cachedTx struct {
	tx *wire.MsgTx
}

// Size implements cache.Value.  Entries are counted, not sized.
func (c *cachedTx) Size() (uint64, error) {
	return 1, nil
}

// getTxCached fetches a transaction through a bounded cache scoped to
// one GetTransfers call.  The cache only changes latency, never results.
func (a *Account) getTxCached(ctx context.Context,
	cache *lru.Cache[string, *cachedTx],
	txid string) (*wire.MsgTx, error) {

	if entry, err := cache.Get(txid); err == nil {
		return entry.tx, nil
	}

	tx, err := a.chain.GetTransaction(ctx, txid)
	if err != nil {
		return nil, err
	}
	_, _ = cache.Put(txid, &cachedTx{tx: tx})
	return tx, nil
}

// GetTransfers reconstructs the account's transfer records from the
// address history.  Every record is one taproot output of one
// transaction: outputs paying the account in transactions it did not
// fund are incoming, outputs paying third parties in transactions it did
// fund are outgoing, and change outputs are skipped entirely.
func (a *Account) GetTransfers(ctx context.Context,
	query *TransferQuery) ([]*Transfer, error) {

	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	if query == nil {
		query = &TransferQuery{}
	}

	history, err := a.chain.History(ctx, a.address)
	if err != nil {
		return nil, err
	}
	if query.Skip >= len(history) {
		return nil, nil
	}
	if query.Skip > 0 {
		history = history[query.Skip:]
	}

	cache := lru.NewCache[string, *cachedTx](prevTxCacheSize)

	transfers := make([]*Transfer, 0, len(history))
	for _, item := range history {
		if query.Limit > 0 && len(transfers) >= query.Limit {
			break
		}

		records, err := a.resolveTransfers(ctx, cache, item)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			if query.Direction != "" &&
				record.Direction != query.Direction {

				continue
			}
			transfers = append(transfers, record)
			if query.Limit > 0 && len(transfers) >= query.Limit {
				break
			}
		}
	}
	return transfers, nil
}

// resolveTransfers turns one history entry into its transfer records by
// fetching the transaction and the previous transaction of every input.
func (a *Account) resolveTransfers(ctx context.Context,
	cache *lru.Cache[string, *cachedTx],
	item *electrum.HistoryItem) ([]*Transfer, error) {

	tx, err := a.getTxCached(ctx, cache, item.TxID)
	if err != nil {
		return nil, err
	}

	// Resolve every input's previous output to learn the input values
	// and whether any of them spends the account's own script.
	var (
		zeroHash chainhash.Hash
		totalIn  btcutil.Amount
		feeKnown = true
		outgoing bool
	)
	for _, txIn := range tx.TxIn {
		if txIn.PreviousOutPoint.Hash == zeroHash {
			// Coinbase input: there is no previous output.
			feeKnown = false
			continue
		}

		prevTx, err := a.getTxCached(
			ctx, cache, txIn.PreviousOutPoint.Hash.String(),
		)
		if err != nil {
			// An unresolvable previous output leaves the fee
			// unknown but does not fail the whole page.
			log.Debugf("Unable to resolve previous output %v "+
				"of %s: %v", txIn.PreviousOutPoint,
				item.TxID, err)
			feeKnown = false
			continue
		}
		prevIndex := txIn.PreviousOutPoint.Index
		if prevIndex >= uint32(len(prevTx.TxOut)) {
			return nil, fmt.Errorf("input %s of %s references a "+
				"missing output", txIn.PreviousOutPoint,
				item.TxID)
		}
		prevOut := prevTx.TxOut[prevIndex]

		totalIn += btcutil.Amount(prevOut.Value)
		if bytes.Equal(prevOut.PkScript, a.pkScript) {
			outgoing = true
		}
	}

	var totalOut btcutil.Amount
	for _, txOut := range tx.TxOut {
		totalOut += btcutil.Amount(txOut.Value)
	}

	fee := fn.None[btcutil.Amount]()
	if feeKnown {
		fee = fn.Some(totalIn - totalOut)
	}

	var height uint32
	if item.Height > 0 {
		height = uint32(item.Height)
	}

	var records []*Transfer
	for vout, txOut := range tx.TxOut {
		addr, ok := a.taprootAddress(txOut.PkScript)
		if !ok {
			continue
		}
		isSelf := addr == a.address

		record := &Transfer{
			TxID:        item.TxID,
			Address:     a.address,
			OutputIndex: uint32(vout),
			BlockHeight: height,
			Amount:      btcutil.Amount(txOut.Value),
			Fee:         fee,
		}
		switch {
		case isSelf && !outgoing:
			record.Direction = DirectionIncoming
			record.Counterparty = fn.Some(a.address)

		case !isSelf && outgoing:
			record.Direction = DirectionOutgoing
			record.Counterparty = fn.Some(addr)

		default:
			// Change back to the account, or a third-party
			// output of a transaction the account did not fund.
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// taprootAddress renders a P2TR output script as an address on the
// account's network.  Non-taproot scripts report ok=false and are skipped
// by history resolution.
func (a *Account) taprootAddress(pkScript []byte) (string, bool) {
	if !txscript.IsPayToTaproot(pkScript) {
		return "", false
	}
	addr, err := btcutil.NewAddressTaproot(pkScript[2:], a.params.Params)
	if err != nil {
		return "", false
	}
	return addr.EncodeAddress(), true
}
