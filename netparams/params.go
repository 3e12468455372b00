// Copyright (c) 2013-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network is the tag used to select one of the supported bitcoin networks.
// The zero value is not valid; use one of the constants below or
// ParseNetwork.
type Network string

const (
	// MainNet is the main bitcoin network.
	MainNet Network = "mainnet"

	// TestNet is the test network (version 3).
	TestNet Network = "testnet"

	// RegTest is the local regression test network.
	RegTest Network = "regtest"
)

// ErrUnknownNetwork describes a network tag that does not match any of the
// supported networks.
var ErrUnknownNetwork = errors.New("unknown network")

// Params is used to group parameters for the various networks the wallet
// can run against.  It embeds the btcd chain parameters and adds the BIP-86
// derivation constants that are not part of chaincfg.
type Params struct {
	*chaincfg.Params

	// CoinType is the BIP-44/86 coin type used as the second component
	// of the derivation path.  Zero on the main network, one everywhere
	// else.
	CoinType uint32
}

// MainNetParams contains parameters specific to the main network
// (wire.MainNet).
var MainNetParams = Params{
	Params:   &chaincfg.MainNetParams,
	CoinType: 0,
}

// TestNet3Params contains parameters specific to the test network (version
// 3) (wire.TestNet3).
var TestNet3Params = Params{
	Params:   &chaincfg.TestNet3Params,
	CoinType: 1,
}

// RegTestParams contains parameters specific to the regression test network
// (wire.TestNet).
var RegTestParams = Params{
	Params:   &chaincfg.RegressionNetParams,
	CoinType: 1,
}

// ParseNetwork converts a network name into its Network tag.  The match is
// exact; unknown names return ErrUnknownNetwork.
func ParseNetwork(name string) (Network, error) {
	switch Network(name) {
	case MainNet, TestNet, RegTest:
		return Network(name), nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownNetwork, name)
	}
}

// NetParams returns the grouped parameters for the given network tag.
func NetParams(net Network) (*Params, error) {
	switch net {
	case MainNet:
		return &MainNetParams, nil
	case TestNet:
		return &TestNet3Params, nil
	case RegTest:
		return &RegTestParams, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownNetwork, net)
	}
}

// Bech32HRP returns the human-readable part used for bech32m encoded
// taproot addresses on the network: bc, tb or bcrt.
func (n Network) Bech32HRP() string {
	params, err := NetParams(n)
	if err != nil {
		return ""
	}
	return params.Bech32HRPSegwit
}
