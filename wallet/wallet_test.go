// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"

	"github.com/btcsuite/tapwallet/electrum"
	"github.com/btcsuite/tapwallet/keyring"
	"github.com/btcsuite/tapwallet/netparams"
)

// TestAccountGetters checks the address, network and path surface.
func TestAccountGetters(t *testing.T) {
	acct := testAccount(t, newMockChain())

	require.True(t, strings.HasPrefix(acct.Address(), "bcrt1p"),
		"address %q", acct.Address())
	require.Equal(t, netparams.RegTest, acct.Network())
	require.Equal(t, "m/86'/1'/0'/0/0", acct.DerivationPath())
}

// TestAccountFromSeed checks that seed-based construction matches the
// mnemonic-based one.
func TestAccountFromSeed(t *testing.T) {
	fromMnemonic := testAccount(t, newMockChain())

	seed := bip39.NewSeed(testMnemonic, "")
	fromSeed, err := New(&Config{
		Seed:    seed,
		Path:    "0'/0/0",
		Network: netparams.RegTest,
		Chain:   newMockChain(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fromSeed.Close() })

	require.Equal(t, fromMnemonic.Address(), fromSeed.Address())
}

// TestAccountConstructionErrors checks the pre-I/O validation paths.
func TestAccountConstructionErrors(t *testing.T) {
	_, err := New(&Config{
		Mnemonic: "definitely not a valid seed phrase",
		Path:     "0'/0/0",
		Network:  netparams.RegTest,
		Chain:    newMockChain(),
	})
	require.ErrorIs(t, err, keyring.ErrInvalidSeedPhrase)

	_, err = New(&Config{
		Mnemonic: testMnemonic,
		Path:     "0'/x/0",
		Network:  netparams.RegTest,
		Chain:    newMockChain(),
	})
	require.ErrorIs(t, err, keyring.ErrInvalidPath)

	_, err = New(&Config{
		Mnemonic: testMnemonic,
		Path:     "0'/0/0",
		Network:  netparams.Network("florinet"),
		Chain:    newMockChain(),
	})
	require.ErrorIs(t, err, netparams.ErrUnknownNetwork)
}

// TestBalance checks the balance pass-through.
func TestBalance(t *testing.T) {
	m := newMockChain()
	m.balance = &electrum.Balance{Confirmed: 123_456, Unconfirmed: -78}
	acct := testAccount(t, m)

	balance, err := acct.Balance(context.Background())
	require.NoError(t, err)
	require.Equal(t, btcutil.Amount(123_456), balance.Confirmed)
	require.Equal(t, btcutil.Amount(-78), balance.Unconfirmed)
}

// TestAccountSignVerify checks the message signing round trip through
// the account surface.
func TestAccountSignVerify(t *testing.T) {
	acct := testAccount(t, newMockChain())

	sig, err := acct.SignMessage("hello")
	require.NoError(t, err)

	ok, err := acct.VerifyMessage("hello", sig)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = acct.VerifyMessage("good bye", sig)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = acct.VerifyMessage("hello", "not a signature")
	require.ErrorIs(t, err, keyring.ErrMalformedSignature)
}

// TestUnsupportedOperations checks the stable error of the account
// interface methods bitcoin does not implement.
func TestUnsupportedOperations(t *testing.T) {
	acct := testAccount(t, newMockChain())
	ctx := context.Background()

	tests := []struct {
		method string
		call   func() error
	}{
		{"transfer", func() error { return acct.Transfer(ctx) }},
		{"quoteTransfer", func() error {
			return acct.QuoteTransfer(ctx)
		}},
		{"tokenBalance", func() error {
			return acct.TokenBalance(ctx)
		}},
	}

	for _, test := range tests {
		err := test.call()
		require.ErrorIs(t, err, ErrUnsupported, test.method)
		require.Contains(t, err.Error(), test.method)
		require.Contains(t, err.Error(),
			"is not supported for bitcoin accounts")
	}
}

// TestCloseDisposesAccount checks the closed state machine: key
// operations fail deterministically after Close, and Close is
// idempotent.
func TestCloseDisposesAccount(t *testing.T) {
	m := newMockChain()
	acct := testAccount(t, m)
	fund(t, m, acct, 1_000_000, 1, 100)

	require.NoError(t, acct.Close())
	require.NoError(t, acct.Close())

	_, err := acct.SignMessage("msg")
	require.ErrorIs(t, err, ErrAccountClosed)

	_, err = acct.VerifyMessage("msg", "00")
	require.ErrorIs(t, err, ErrAccountClosed)

	_, err = acct.Balance(context.Background())
	require.ErrorIs(t, err, ErrAccountClosed)

	_, recipient := foreignTaproot(t, 9)
	_, err = acct.SendTransaction(context.Background(), recipient,
		10_000)
	require.ErrorIs(t, err, ErrAccountClosed)

	_, err = acct.QuoteSend(context.Background(), recipient, 10_000)
	require.ErrorIs(t, err, ErrAccountClosed)

	_, err = acct.GetTransfers(context.Background(), nil)
	require.ErrorIs(t, err, ErrAccountClosed)

	require.Empty(t, m.broadcasts)
}

// TestRecipientValidation checks recipient address parsing against the
// account's network.
func TestRecipientValidation(t *testing.T) {
	m := newMockChain()
	acct := testAccount(t, m)
	fund(t, m, acct, 1_000_000, 1, 100)

	_, err := acct.SendTransaction(context.Background(),
		"not an address", 10_000)
	require.Error(t, err)

	// A mainnet address is rejected on a regtest account.
	_, err = acct.SendTransaction(context.Background(),
		"bc1p5cyxnuxmeuwuvkwfem96lqzszd02n6xdcjrs20cac6yqjjwudpxqkedrcr",
		10_000)
	require.Error(t, err)

	require.Empty(t, m.broadcasts)
}
