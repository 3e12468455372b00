// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package electrum

import (
	"bytes"
	"context"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Balance is the indexed balance of a single script.
type Balance struct {
	// Confirmed is the value of confirmed outputs paying the script.
	Confirmed btcutil.Amount

	// Unconfirmed is the net value of mempool transactions touching the
	// script.  It can be negative while an outgoing spend is pending.
	Unconfirmed btcutil.Amount
}

// Unspent is one unspent output of a script.
type Unspent struct {
	// TxID is the big-endian hex id of the funding transaction.
	TxID string

	// Vout is the output index within the funding transaction.
	Vout uint32

	// Value is the output value in satoshis.
	Value btcutil.Amount

	// Height is the confirmation height, zero while unconfirmed.
	Height uint32
}

// HistoryItem is one entry of a script's transaction history.
type HistoryItem struct {
	// TxID is the big-endian hex id of the transaction.
	TxID string

	// Height is the confirmation height.  Zero or negative values mean
	// the transaction is still unconfirmed.
	Height int32
}

// serverVersion negotiates the protocol version.  It bypasses the lazy
// connect so the connect path itself can use it.
func (c *Client) serverVersion(ctx context.Context) (string, string, error) {
	var res [2]string
	err := c.do(ctx, "server.version",
		[]interface{}{clientName, protocolVersion}, &res)
	if err != nil {
		return "", "", err
	}
	return res[0], res[1], nil
}

// ServerVersion returns the server software string and the negotiated
// protocol version.
func (c *Client) ServerVersion(ctx context.Context) (string, string, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return "", "", err
	}
	return c.serverVersion(ctx)
}

// EstimateFeeRate asks the server for a next-block fee estimate and
// converts it from BTC per kilobyte to satoshis per virtual byte,
// flooring at one.
func (c *Client) EstimateFeeRate(ctx context.Context) (btcutil.Amount, error) {
	var btcPerKvB float64
	err := c.call(ctx, "blockchain.estimatefee",
		[]interface{}{1}, &btcPerKvB)
	if err != nil {
		return 0, err
	}

	// Servers report -1 when they have no estimate.
	if btcPerKvB <= 0 {
		return 1, nil
	}

	perKvB, err := btcutil.NewAmount(btcPerKvB)
	if err != nil {
		return 0, &RPCError{
			Message: "unexpected estimatefee response",
		}
	}
	perVByte := perKvB / 1000
	if perVByte < 1 {
		perVByte = 1
	}
	return perVByte, nil
}

// ScriptBalance returns the balance of the script paying the given
// address.
func (c *Client) ScriptBalance(ctx context.Context,
	addr string) (*Balance, error) {

	sh, err := ScriptHash(addr, c.params.Params)
	if err != nil {
		return nil, err
	}

	var res struct {
		Confirmed   *int64 `json:"confirmed"`
		Unconfirmed int64  `json:"unconfirmed"`
	}
	err = c.call(ctx, "blockchain.scripthash.get_balance",
		[]interface{}{sh}, &res)
	if err != nil {
		return nil, err
	}
	if res.Confirmed == nil {
		return nil, &RPCError{
			Message: "get_balance response missing confirmed",
		}
	}

	return &Balance{
		Confirmed:   btcutil.Amount(*res.Confirmed),
		Unconfirmed: btcutil.Amount(res.Unconfirmed),
	}, nil
}

// ListUnspent returns the unspent outputs of the script paying the given
// address, in server order.
func (c *Client) ListUnspent(ctx context.Context,
	addr string) ([]*Unspent, error) {

	sh, err := ScriptHash(addr, c.params.Params)
	if err != nil {
		return nil, err
	}

	var res []struct {
		TxHash *string `json:"tx_hash"`
		TxPos  *uint32 `json:"tx_pos"`
		Value  *int64  `json:"value"`
		Height uint32  `json:"height"`
	}
	err = c.call(ctx, "blockchain.scripthash.listunspent",
		[]interface{}{sh}, &res)
	if err != nil {
		return nil, err
	}

	unspent := make([]*Unspent, 0, len(res))
	for _, entry := range res {
		if entry.TxHash == nil || entry.TxPos == nil ||
			entry.Value == nil {

			return nil, &RPCError{
				Message: "listunspent entry missing " +
					"required field",
			}
		}
		unspent = append(unspent, &Unspent{
			TxID:   *entry.TxHash,
			Vout:   *entry.TxPos,
			Value:  btcutil.Amount(*entry.Value),
			Height: entry.Height,
		})
	}
	return unspent, nil
}

// History returns the transaction history of the script paying the given
// address, in server order.
func (c *Client) History(ctx context.Context,
	addr string) ([]*HistoryItem, error) {

	sh, err := ScriptHash(addr, c.params.Params)
	if err != nil {
		return nil, err
	}

	var res []struct {
		TxHash *string `json:"tx_hash"`
		Height *int32  `json:"height"`
	}
	err = c.call(ctx, "blockchain.scripthash.get_history",
		[]interface{}{sh}, &res)
	if err != nil {
		return nil, err
	}

	history := make([]*HistoryItem, 0, len(res))
	for _, entry := range res {
		if entry.TxHash == nil || entry.Height == nil {
			return nil, &RPCError{
				Message: "get_history entry missing " +
					"required field",
			}
		}
		history = append(history, &HistoryItem{
			TxID:   *entry.TxHash,
			Height: *entry.Height,
		})
	}
	return history, nil
}

// GetTransaction fetches a transaction by id and decodes it from the
// standard wire format.
func (c *Client) GetTransaction(ctx context.Context,
	txid string) (*wire.MsgTx, error) {

	var txHex string
	err := c.call(ctx, "blockchain.transaction.get",
		[]interface{}{txid}, &txHex)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, &RPCError{
			Message: "transaction.get returned invalid hex: " +
				err.Error(),
		}
	}
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, &RPCError{
			Message: "transaction.get returned undecodable " +
				"transaction: " + err.Error(),
		}
	}
	return tx, nil
}

// Broadcast submits a raw transaction in hex and returns the id the
// server accepted it under.
func (c *Client) Broadcast(ctx context.Context, rawHex string) (string, error) {
	var txid string
	err := c.call(ctx, "blockchain.transaction.broadcast",
		[]interface{}{rawHex}, &txid)
	if err != nil {
		return "", err
	}

	// Some servers report rejections through the result field instead
	// of a proper error payload.
	if _, err := chainhash.NewHashFromStr(txid); err != nil {
		return "", &RPCError{Message: txid}
	}

	log.Infof("Broadcast transaction %s", txid)
	return txid, nil
}
