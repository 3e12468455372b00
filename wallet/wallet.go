// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet implements a single-key BIP-86 taproot account on top of
// an electrum server.  An account is derived deterministically from a
// BIP-39 seed phrase and a relative derivation path and exposes balance
// lookups, transfer history, message signing and taproot key path
// payments.
package wallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/btcsuite/tapwallet/electrum"
	"github.com/btcsuite/tapwallet/keyring"
	"github.com/btcsuite/tapwallet/netparams"
)

// Config describes how to derive and connect an account.
type Config struct {
	// Mnemonic is the BIP-39 seed phrase.  Either Mnemonic or Seed must
	// be set; Mnemonic wins when both are.
	Mnemonic string

	// Passphrase is the optional BIP-39 passphrase mixed into the seed.
	Passphrase string

	// Seed is the raw BIP-39 seed, as an alternative to Mnemonic.
	Seed []byte

	// Path is the relative derivation path suffix below m/86'/coin',
	// e.g. 0'/0/0.
	Path string

	// Network selects the bitcoin network.  Defaults to mainnet.
	Network netparams.Network

	// Electrum configures the gateway dialed when no Chain is
	// injected.  Optional; defaults to the package defaults with the
	// account's network.
	Electrum *electrum.Config

	// Chain overrides the chain data source.  When set, the account
	// does not own the source and Close will not tear it down.
	Chain ChainSource
}

// Account is a single-key taproot account.  All methods are safe for
// concurrent use.
type Account struct {
	mtx sync.Mutex

	keys     *keyring.KeyRing
	params   *netparams.Params
	address  string
	pkScript []byte

	chain      ChainSource
	ownedChain io.Closer

	closed bool
}

// New derives the account's key material and prepares the chain gateway.
// No connection is made until the first chain operation.
func New(cfg *Config) (*Account, error) {
	network := cfg.Network
	if network == "" {
		network = netparams.MainNet
	}
	params, err := netparams.NetParams(network)
	if err != nil {
		return nil, err
	}

	var keys *keyring.KeyRing
	if cfg.Mnemonic != "" {
		keys, err = keyring.NewFromMnemonic(
			cfg.Mnemonic, cfg.Passphrase, cfg.Path, network,
		)
	} else {
		keys, err = keyring.NewFromSeed(cfg.Seed, cfg.Path, network)
	}
	if err != nil {
		return nil, err
	}

	pkScript, err := txscript.PayToAddrScript(keys.TaprootAddress())
	if err != nil {
		keys.Zero()
		return nil, err
	}

	a := &Account{
		keys:     keys,
		params:   params,
		address:  keys.TaprootAddress().EncodeAddress(),
		pkScript: pkScript,
		chain:    cfg.Chain,
	}

	if a.chain == nil {
		ecfg := cfg.Electrum
		if ecfg == nil {
			ecfg = electrum.DefaultConfig()
		}
		ecfgCopy := *ecfg
		ecfgCopy.Network = network
		client, err := electrum.New(&ecfgCopy)
		if err != nil {
			keys.Zero()
			return nil, err
		}
		a.chain = client
		a.ownedChain = client
	}

	log.Infof("Opened account %s at %s on %s", a.address,
		keys.DerivationPath(), network)

	return a, nil
}

// checkOpen fails with ErrAccountClosed once Close ran.
func (a *Account) checkOpen() error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.closed {
		return ErrAccountClosed
	}
	return nil
}

// Address returns the account's bech32m taproot address.
func (a *Account) Address() string {
	return a.address
}

// Network returns the network the account was derived for.
func (a *Account) Network() netparams.Network {
	return a.keys.Network()
}

// DerivationPath returns the account's absolute derivation path, e.g.
// m/86'/1'/0'/0/0.
func (a *Account) DerivationPath() string {
	return a.keys.DerivationPath()
}

// Balance returns the confirmed and unconfirmed balance of the account's
// address.
func (a *Account) Balance(ctx context.Context) (*electrum.Balance, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	return a.chain.ScriptBalance(ctx, a.address)
}

// EstimateFeeRate returns the gateway's next-block fee rate in satoshis
// per virtual byte.
func (a *Account) EstimateFeeRate(ctx context.Context) (btcutil.Amount,
	error) {

	if err := a.checkOpen(); err != nil {
		return 0, err
	}
	return a.chain.EstimateFeeRate(ctx)
}

// SignMessage signs SHA256(msg) with the account's key and returns the
// DER encoded ECDSA signature as hex.
func (a *Account) SignMessage(msg string) (string, error) {
	if err := a.checkOpen(); err != nil {
		return "", err
	}
	return a.keys.SignMessage(msg)
}

// VerifyMessage verifies a signature produced by SignMessage.
func (a *Account) VerifyMessage(msg, sigHex string) (bool, error) {
	if err := a.checkOpen(); err != nil {
		return false, err
	}
	return a.keys.VerifyMessage(msg, sigHex)
}

// SendQuote is the predicted cost of a send at the current fee rate.
type SendQuote struct {
	// Amount is the value paid to the recipient.
	Amount btcutil.Amount

	// Fee is the transaction fee.
	Fee btcutil.Amount

	// Total is Amount plus Fee.
	Total btcutil.Amount

	// FeeRate is the fee rate the quote was computed at, in satoshis
	// per virtual byte.
	FeeRate btcutil.Amount

	// VSize is the estimated virtual size of the transaction.
	VSize int
}

// SendResult describes a broadcast payment.
type SendResult struct {
	// TxID is the big-endian hex id of the transaction.
	TxID string

	// RawTx is the serialized transaction in hex.
	RawTx string

	// Fee is the fee the transaction pays.
	Fee btcutil.Amount

	// VSize is the virtual size of the signed transaction.
	VSize int64
}

// QuoteSend computes the fee a send of the given amount would pay at the
// server's current fee rate, without signing or broadcasting anything.
func (a *Account) QuoteSend(ctx context.Context, to string,
	amount btcutil.Amount) (*SendQuote, error) {

	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	if amount <= DustLimit {
		return nil, fmt.Errorf("%w: %v", ErrAmountBelowDust, amount)
	}
	payTo, err := a.decodeRecipient(to)
	if err != nil {
		return nil, err
	}

	feeRate, err := a.chain.EstimateFeeRate(ctx)
	if err != nil {
		return nil, err
	}
	inputs, err := a.pickUtxos(ctx, amount)
	if err != nil {
		return nil, err
	}

	payScript, err := txscript.PayToAddrScript(payTo)
	if err != nil {
		return nil, err
	}
	_, fee, vsize, err := a.planSpend(inputs, payScript, amount, feeRate)
	if err != nil {
		return nil, err
	}

	return &SendQuote{
		Amount:  amount,
		Fee:     fee,
		Total:   amount + fee,
		FeeRate: feeRate,
		VSize:   vsize,
	}, nil
}

// SendTransaction builds, signs and broadcasts a payment of the given
// amount to the recipient address.  The fee rate is taken from the
// server's next-block estimate.
func (a *Account) SendTransaction(ctx context.Context, to string,
	amount btcutil.Amount) (*SendResult, error) {

	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	if amount <= DustLimit {
		return nil, fmt.Errorf("%w: %v", ErrAmountBelowDust, amount)
	}
	payTo, err := a.decodeRecipient(to)
	if err != nil {
		return nil, err
	}

	feeRate, err := a.chain.EstimateFeeRate(ctx)
	if err != nil {
		return nil, err
	}
	inputs, err := a.pickUtxos(ctx, amount)
	if err != nil {
		return nil, err
	}

	authored, err := a.createSpend(inputs, payTo, amount, feeRate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := authored.tx.Serialize(&buf); err != nil {
		return nil, err
	}
	rawHex := hex.EncodeToString(buf.Bytes())
	txid := authored.tx.TxHash().String()

	acceptedID, err := a.chain.Broadcast(ctx, rawHex)
	if err != nil {
		return nil, err
	}
	if acceptedID != txid {
		log.Warnf("Server accepted transaction under id %s, "+
			"expected %s", acceptedID, txid)
	}

	log.Infof("Sent %v to %s in %s (fee %v, %d vbytes)", amount, to,
		txid, authored.fee, authored.vsize)

	return &SendResult{
		TxID:  txid,
		RawTx: rawHex,
		Fee:   authored.fee,
		VSize: authored.vsize,
	}, nil
}

// Transfer is the generic asset transfer operation of the account
// interface.  Bitcoin accounts only support SendTransaction.
func (a *Account) Transfer(ctx context.Context) error {
	return unsupported("transfer")
}

// QuoteTransfer is the generic transfer quote operation of the account
// interface.  Bitcoin accounts only support QuoteSend.
func (a *Account) QuoteTransfer(ctx context.Context) error {
	return unsupported("quoteTransfer")
}

// TokenBalance is the token balance operation of the account interface.
// Bitcoin accounts carry no tokens.
func (a *Account) TokenBalance(ctx context.Context) error {
	return unsupported("tokenBalance")
}

// Close wipes the account's key material and tears down the gateway
// connection if the account owns it.  Close is idempotent.
func (a *Account) Close() error {
	a.mtx.Lock()
	if a.closed {
		a.mtx.Unlock()
		return nil
	}
	a.closed = true
	a.mtx.Unlock()

	a.keys.Zero()
	if a.ownedChain != nil {
		return a.ownedChain.Close()
	}
	return nil
}

// decodeRecipient parses and network-checks a recipient address.
func (a *Account) decodeRecipient(addr string) (btcutil.Address, error) {
	decoded, err := btcutil.DecodeAddress(addr, a.params.Params)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w",
			addr, err)
	}
	if !decoded.IsForNet(a.params.Params) {
		return nil, fmt.Errorf("recipient address %q is not valid "+
			"for network %s", addr, a.params.Name)
	}
	return decoded, nil
}
