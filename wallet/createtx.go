// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
)

const (
	// DustLimit is the smallest output value the wallet will create.
	// Send amounts at or below it are rejected and residual change at
	// or below it is absorbed into the fee.
	DustLimit = btcutil.Amount(546)

	// MinFeeFloor is the smallest fee any built transaction pays,
	// regardless of its virtual size and the fee rate.
	MinFeeFloor = btcutil.Amount(141)
)

// authoredTx is a fully signed transaction together with its fee
// accounting.
type authoredTx struct {
	tx    *wire.MsgTx
	fee   btcutil.Amount
	vsize int64
}

// createSpend builds and signs a payment of amount to payTo funded by the
// given inputs.  The fee is discovered in two passes: the transaction is
// first laid out with a zero fee to learn its virtual size, then laid out
// again with the fee derived from that size and the fee rate.  The second
// layout may still drop a change output that falls below the dust limit.
func (a *Account) createSpend(inputs []*credit, payTo btcutil.Address,
	amount, feeRate btcutil.Amount) (*authoredTx, error) {

	payScript, err := txscript.PayToAddrScript(payTo)
	if err != nil {
		return nil, err
	}

	outputs, fee, _, err := a.planSpend(inputs, payScript, amount, feeRate)
	if err != nil {
		return nil, err
	}

	tx, err := a.signSpend(inputs, outputs)
	if err != nil {
		return nil, err
	}

	return &authoredTx{
		tx:    tx,
		fee:   fee,
		vsize: txVirtualSize(tx),
	}, nil
}

// planSpend runs the two-pass fee discovery and returns the final output
// list, the fee it implies and the estimated virtual size the fee was
// computed from.
func (a *Account) planSpend(inputs []*credit, payScript []byte,
	amount, feeRate btcutil.Amount) ([]*wire.TxOut, btcutil.Amount, int,
	error) {

	trialOutputs, _, err := a.planOutputs(inputs, payScript, amount, 0)
	if err != nil {
		return nil, 0, 0, err
	}

	// The estimate below is a worst-case size for taproot key path
	// inputs, so it can exceed the virtual size of the signed
	// transaction by a few vbytes.
	vsize := txsizes.EstimateVirtualSize(
		0, len(inputs), 0, 0, trialOutputs, 0,
	)

	fee := txrules.FeeForSerializeSize(feeRate*1000, vsize)
	if fee < MinFeeFloor {
		fee = MinFeeFloor
	}

	outputs, actualFee, err := a.planOutputs(
		inputs, payScript, amount, fee,
	)
	if err != nil {
		return nil, 0, 0, err
	}
	return outputs, actualFee, vsize, nil
}

// planOutputs lays out the outputs of a spend at a given fee: one output
// to the recipient, plus a change output back to the account when the
// residue exceeds the dust limit.  Dusty residue is absorbed into the
// fee, so the returned fee can exceed the requested one.  A negative
// residue fails with ErrInsufficientBalance.
func (a *Account) planOutputs(inputs []*credit, payScript []byte,
	amount, fee btcutil.Amount) ([]*wire.TxOut, btcutil.Amount, error) {

	var totalIn btcutil.Amount
	for _, input := range inputs {
		totalIn += input.amount
	}

	change := totalIn - amount - fee
	if change < 0 {
		return nil, 0, fmt.Errorf("%w: %v available, %v needed",
			ErrInsufficientBalance, totalIn, amount+fee)
	}

	outputs := []*wire.TxOut{wire.NewTxOut(int64(amount), payScript)}
	if change > DustLimit {
		outputs = append(outputs,
			wire.NewTxOut(int64(change), a.pkScript))
		return outputs, fee, nil
	}

	// Dusty change becomes extra fee.
	return outputs, fee + change, nil
}

// signSpend assembles the PSBT for the chosen inputs and outputs, signs
// every input with the account's tweaked key over the BIP-341 key path
// sighash, finalizes the packet and extracts the wire transaction.  Each
// finished witness is a single 64-byte schnorr signature.
func (a *Account) signSpend(inputs []*credit,
	outputs []*wire.TxOut) (*wire.MsgTx, error) {

	outPoints := make([]*wire.OutPoint, len(inputs))
	nSequences := make([]uint32, len(inputs))
	for i, input := range inputs {
		outPoint := input.outPoint
		outPoints[i] = &outPoint
		nSequences[i] = wire.MaxTxInSequenceNum
	}

	packet, err := psbt.New(outPoints, outputs, 2, 0, nSequences)
	if err != nil {
		return nil, err
	}

	internalKey, err := a.keys.InternalKey()
	if err != nil {
		return nil, err
	}

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, input := range inputs {
		witnessUtxo := wire.NewTxOut(
			int64(input.amount), input.pkScript,
		)
		packet.Inputs[i].WitnessUtxo = witnessUtxo
		packet.Inputs[i].TaprootInternalKey = internalKey
		packet.Inputs[i].SighashType = txscript.SigHashDefault
		fetcher.AddPrevOut(input.outPoint, witnessUtxo)
	}

	tweakedKey, err := a.keys.TweakedPrivKey()
	if err != nil {
		return nil, err
	}
	defer tweakedKey.Zero()

	sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, fetcher)
	for i := range packet.Inputs {
		sigHash, err := txscript.CalcTaprootSignatureHash(
			sigHashes, txscript.SigHashDefault,
			packet.UnsignedTx, i, fetcher,
		)
		if err != nil {
			return nil, err
		}
		sig, err := schnorr.Sign(tweakedKey, sigHash)
		if err != nil {
			return nil, err
		}
		packet.Inputs[i].TaprootKeySpendSig = sig.Serialize()
	}

	if err := psbt.MaybeFinalizeAll(packet); err != nil {
		return nil, fmt.Errorf("unable to finalize psbt: %w", err)
	}
	return psbt.Extract(packet)
}

// txVirtualSize returns the BIP-141 virtual size of a transaction: its
// witness-discounted weight divided by four, rounded up.
func txVirtualSize(tx *wire.MsgTx) int64 {
	weight := blockchain.GetTransactionWeight(btcutil.NewTx(tx))
	return (weight + blockchain.WitnessScaleFactor - 1) /
		blockchain.WitnessScaleFactor
}
