// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keyring derives and holds the key material for a single BIP-86
// taproot account.  A key ring is built from a BIP-39 mnemonic (or directly
// from the 64-byte seed), derives the child key at m/86'/coin'/<suffix>,
// and exposes the internal key, the tweaked signing key and the bech32m
// address the account is known by.  All secret material can be wiped with
// Zero, after which every signing operation fails.
package keyring

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip39"

	"github.com/btcsuite/tapwallet/internal/zero"
	"github.com/btcsuite/tapwallet/netparams"
)

var (
	// ErrInvalidSeedPhrase describes a mnemonic that fails the BIP-39
	// wordlist or checksum validation.
	ErrInvalidSeedPhrase = errors.New("invalid seed phrase")

	// ErrInvalidPath describes a derivation path suffix that fails the
	// BIP-32 syntactic check.
	ErrInvalidPath = errors.New("invalid derivation path")

	// ErrMalformedSignature describes a signature that could not be
	// parsed during message verification.
	ErrMalformedSignature = errors.New("malformed signature")

	// ErrInvalidTweak describes the (astronomically unlikely) case of
	// the BIP-341 tweaked private key reducing to zero.
	ErrInvalidTweak = errors.New("invalid taproot tweak")

	// ErrKeyRingZeroed describes an operation attempted after the key
	// ring's secret material was wiped with Zero.
	ErrKeyRingZeroed = errors.New("key ring is zeroed")
)

// purpose is the BIP-86 purpose field, the first hardened component of
// every derivation path produced by this package.
const purpose = 86

// KeyRing holds the derived child key of a single taproot account along
// with the precomputed taproot commitment data.
type KeyRing struct {
	mtx sync.RWMutex

	network netparams.Network
	params  *netparams.Params
	absPath string

	// extKey owns the child private key and chain code; Zero wipes
	// both through it.
	extKey      *hdkeychain.ExtendedKey
	privKey     *btcec.PrivateKey
	pubKey      *btcec.PublicKey
	pubKeyBytes [33]byte
	internalKey [32]byte
	address     *btcutil.AddressTaproot

	zeroed bool
}

// NewFromMnemonic validates the BIP-39 mnemonic, stretches it into the
// 64-byte seed and derives the account at m/86'/coin'/<relPath> for the
// given network.  The seed is wiped before returning.
func NewFromMnemonic(mnemonic, passphrase, relPath string,
	network netparams.Network) (*KeyRing, error) {

	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidSeedPhrase
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeedPhrase, err)
	}
	defer zero.Bytes(seed)

	return NewFromSeed(seed, relPath, network)
}

// NewFromSeed derives the account at m/86'/coin'/<relPath> for the given
// network from a raw BIP-39 seed.  The caller retains ownership of the
// seed bytes and should wipe them.
func NewFromSeed(seed []byte, relPath string,
	network netparams.Network) (*KeyRing, error) {

	params, err := netparams.NetParams(network)
	if err != nil {
		return nil, err
	}
	relIndices, err := parseRelPath(relPath)
	if err != nil {
		return nil, err
	}

	// The master node is HMAC-SHA512("Bitcoin seed", seed): the first 32
	// bytes are the private key, the last 32 the chain code.
	master, err := hdkeychain.NewMaster(seed, params.Params)
	if err != nil {
		return nil, err
	}
	defer master.Zero()

	indices := make([]uint32, 0, len(relIndices)+2)
	indices = append(indices,
		hdkeychain.HardenedKeyStart+purpose,
		hdkeychain.HardenedKeyStart+params.CoinType,
	)
	indices = append(indices, relIndices...)

	extKey := master
	for _, index := range indices {
		child, err := extKey.Derive(index)
		if err != nil {
			return nil, err
		}
		if extKey != master {
			extKey.Zero()
		}
		extKey = child
	}

	privKey, err := extKey.ECPrivKey()
	if err != nil {
		return nil, err
	}
	pubKey := privKey.PubKey()

	k := &KeyRing{
		network: network,
		params:  params,
		absPath: formatPath(params.CoinType, relPath),
		extKey:  extKey,
		privKey: privKey,
		pubKey:  pubKey,
	}
	copy(k.pubKeyBytes[:], pubKey.SerializeCompressed())
	copy(k.internalKey[:], schnorr.SerializePubKey(pubKey))

	// The address commits to the output key, not the internal key: the
	// internal key is tweaked with an empty merkle root per BIP-341.
	outputKey := txscript.ComputeTaprootKeyNoScript(pubKey)
	k.address, err = btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(outputKey), params.Params,
	)
	if err != nil {
		return nil, err
	}

	log.Debugf("Derived taproot account %s at %s on %s",
		k.address, k.absPath, network)

	return k, nil
}

// Network returns the network the key ring was derived for.
func (k *KeyRing) Network() netparams.Network {
	return k.network
}

// DerivationPath returns the absolute derivation path of the account,
// e.g. m/86'/1'/0'/0/0.
func (k *KeyRing) DerivationPath() string {
	return k.absPath
}

// TaprootAddress returns the account's bech32m address.
func (k *KeyRing) TaprootAddress() *btcutil.AddressTaproot {
	return k.address
}

// PubKey returns a copy of the account's 33-byte compressed public key.
func (k *KeyRing) PubKey() ([]byte, error) {
	k.mtx.RLock()
	defer k.mtx.RUnlock()

	if k.zeroed {
		return nil, ErrKeyRingZeroed
	}
	pub := make([]byte, len(k.pubKeyBytes))
	copy(pub, k.pubKeyBytes[:])
	return pub, nil
}

// InternalKey returns a copy of the 32-byte x-only internal key the P2TR
// output script commits to.
func (k *KeyRing) InternalKey() ([]byte, error) {
	k.mtx.RLock()
	defer k.mtx.RUnlock()

	if k.zeroed {
		return nil, ErrKeyRingZeroed
	}
	internal := make([]byte, len(k.internalKey))
	copy(internal, k.internalKey[:])
	return internal, nil
}

// SignMessage signs SHA256(msg) with the account's child key and returns
// the DER encoded ECDSA signature as hex.
func (k *KeyRing) SignMessage(msg string) (string, error) {
	k.mtx.RLock()
	defer k.mtx.RUnlock()

	if k.zeroed {
		return "", ErrKeyRingZeroed
	}

	digest := sha256.Sum256([]byte(msg))
	sig := ecdsa.Sign(k.privKey, digest[:])
	return hex.EncodeToString(sig.Serialize()), nil
}

// VerifyMessage checks a hex DER signature produced by SignMessage against
// the account's public key.  A signature that cannot be parsed fails with
// ErrMalformedSignature; a parseable signature over a different message
// returns false.
func (k *KeyRing) VerifyMessage(msg, sigHex string) (bool, error) {
	k.mtx.RLock()
	defer k.mtx.RUnlock()

	if k.zeroed {
		return false, ErrKeyRingZeroed
	}

	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	digest := sha256.Sum256([]byte(msg))
	return sig.Verify(digest[:], k.pubKey), nil
}

// TweakedPrivKey returns the BIP-341 tweaked private key used for key path
// spends: priv + H_TapTweak(internalKey) mod n, with the private key
// negated first if its public key has an odd y coordinate.  The returned
// key is a fresh copy owned by the caller.
func (k *KeyRing) TweakedPrivKey() (*btcec.PrivateKey, error) {
	k.mtx.RLock()
	defer k.mtx.RUnlock()

	if k.zeroed {
		return nil, ErrKeyRingZeroed
	}

	privScalar := k.privKey.Key
	if k.pubKeyBytes[0] == secp256k1.PubKeyFormatCompressedOdd {
		privScalar.Negate()
	}

	tweak := chainhash.TaggedHash(chainhash.TagTapTweak, k.internalKey[:])
	var tweakScalar secp256k1.ModNScalar
	tweakScalar.SetByteSlice(tweak[:])

	tweaked := privScalar.Add(&tweakScalar)
	if tweaked.IsZero() {
		return nil, ErrInvalidTweak
	}
	return secp256k1.NewPrivateKey(tweaked), nil
}

// Zero wipes the private key, chain code and public key material.  Any
// signing or verification attempted afterwards fails with
// ErrKeyRingZeroed.  The derived address remains readable.
func (k *KeyRing) Zero() {
	k.mtx.Lock()
	defer k.mtx.Unlock()

	if k.zeroed {
		return
	}

	// extKey.Zero wipes the child private key and chain code.
	k.extKey.Zero()
	k.privKey.Zero()
	k.privKey = nil
	k.pubKey = nil
	zero.Bytea33(&k.pubKeyBytes)
	zero.Bytea32(&k.internalKey)
	k.zeroed = true

	log.Debugf("Zeroed key material for %s", k.address)
}
