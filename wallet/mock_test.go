// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/btcsuite/tapwallet/electrum"
	"github.com/btcsuite/tapwallet/netparams"
)

const testMnemonic = "cook voyage document eight skate token alien guide " +
	"drink uncle term abuse"

// mockChain is an in-memory ChainSource.
type mockChain struct {
	mtx sync.Mutex

	feeRate btcutil.Amount
	balance *electrum.Balance
	unspent []*electrum.Unspent
	history []*electrum.HistoryItem
	txs     map[string]*wire.MsgTx

	txFetches        map[string]int
	listUnspentCalls int
	broadcasts       []string
	broadcastErr     error
}

func newMockChain() *mockChain {
	return &mockChain{
		feeRate:   1,
		txs:       make(map[string]*wire.MsgTx),
		txFetches: make(map[string]int),
	}
}

// registerTx makes a transaction fetchable by its id.
func (m *mockChain) registerTx(tx *wire.MsgTx) string {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	txid := tx.TxHash().String()
	m.txs[txid] = tx
	return txid
}

func (m *mockChain) EstimateFeeRate(context.Context) (btcutil.Amount,
	error) {

	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.feeRate, nil
}

func (m *mockChain) ScriptBalance(_ context.Context,
	addr string) (*electrum.Balance, error) {

	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.balance == nil {
		return &electrum.Balance{}, nil
	}
	return m.balance, nil
}

func (m *mockChain) ListUnspent(_ context.Context,
	addr string) ([]*electrum.Unspent, error) {

	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.listUnspentCalls++
	return m.unspent, nil
}

func (m *mockChain) History(_ context.Context,
	addr string) ([]*electrum.HistoryItem, error) {

	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.history, nil
}

func (m *mockChain) GetTransaction(_ context.Context,
	txid string) (*wire.MsgTx, error) {

	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.txFetches[txid]++
	tx, ok := m.txs[txid]
	if !ok {
		return nil, &electrum.RPCError{
			Message: "missing transaction " + txid,
		}
	}
	return tx, nil
}

func (m *mockChain) Broadcast(_ context.Context, rawHex string) (string,
	error) {

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.broadcastErr != nil {
		return "", m.broadcastErr
	}

	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return "", errors.New("broadcast of invalid hex")
	}
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return "", errors.New("broadcast of undecodable transaction")
	}

	m.broadcasts = append(m.broadcasts, rawHex)
	txid := tx.TxHash().String()
	m.txs[txid] = tx
	return txid, nil
}

// testAccount opens the reference regtest account against the given
// chain source.
func testAccount(t *testing.T, chain ChainSource) *Account {
	t.Helper()

	acct, err := New(&Config{
		Mnemonic: testMnemonic,
		Path:     "0'/0/0",
		Network:  netparams.RegTest,
		Chain:    chain,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = acct.Close() })
	return acct
}

// chainhashDouble renders the double SHA-256 of b as a big-endian hex
// transaction id.
func chainhashDouble(b []byte) string {
	return chainhash.DoubleHashH(b).String()
}

// foreignTaproot derives a third-party taproot script and address from a
// fixed seed byte.
func foreignTaproot(t *testing.T, seed byte) ([]byte, string) {
	t.Helper()

	keyBytes := make([]byte, 32)
	keyBytes[31] = seed
	privKey, _ := btcec.PrivKeyFromBytes(keyBytes)
	outputKey := txscript.ComputeTaprootKeyNoScript(privKey.PubKey())
	addr, err := btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(outputKey),
		&chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return pkScript, addr.EncodeAddress()
}

// makeTx builds a transaction spending the given outpoints into the
// given outputs.  The nonce makes otherwise identical transactions
// distinct.
func makeTx(nonce byte, prevOuts []wire.OutPoint,
	outputs []*wire.TxOut) *wire.MsgTx {

	tx := wire.NewMsgTx(2)
	if len(prevOuts) == 0 {
		var hash chainhash.Hash
		hash[0] = 0xf0
		hash[1] = nonce
		prevOuts = []wire.OutPoint{{Hash: hash, Index: 0}}
	}
	for i := range prevOuts {
		tx.AddTxIn(wire.NewTxIn(&prevOuts[i], nil, nil))
	}
	for _, out := range outputs {
		tx.AddTxOut(out)
	}
	return tx
}

// fund registers a confirmed funding transaction paying the account and
// lists its output as unspent.
func fund(t *testing.T, m *mockChain, acct *Account, value btcutil.Amount,
	nonce byte, height uint32) string {

	t.Helper()

	fundingTx := makeTx(nonce, nil, []*wire.TxOut{
		wire.NewTxOut(int64(value), acct.pkScript),
	})
	txid := m.registerTx(fundingTx)

	m.mtx.Lock()
	m.unspent = append(m.unspent, &electrum.Unspent{
		TxID:   txid,
		Vout:   0,
		Value:  value,
		Height: height,
	})
	m.mtx.Unlock()

	return txid
}
