// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrAccountClosed describes an operation attempted after Close
	// wiped the account's key material.
	ErrAccountClosed = errors.New("account is closed")

	// ErrAmountBelowDust describes a send whose amount does not exceed
	// the dust limit.  It is raised before any I/O happens.
	ErrAmountBelowDust = errors.New("amount is below the dust limit")

	// ErrNoUnspent describes a send attempted while the account has no
	// unspent outputs at all.
	ErrNoUnspent = errors.New("no unspent outputs")

	// ErrInsufficientBalance describes a send whose amount plus fee
	// exceeds the value of the account's unspent outputs.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUnsupported describes an operation that exists on other asset
	// types but has no meaning for a bitcoin account.
	ErrUnsupported = errors.New("unsupported operation")
)

// unsupported builds the fixed ErrUnsupported message for a named method.
func unsupported(method string) error {
	return fmt.Errorf("%w: %s is not supported for bitcoin accounts",
		ErrUnsupported, method)
}
