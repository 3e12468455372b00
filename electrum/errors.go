// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package electrum

import (
	"errors"
	"fmt"
)

var (
	// ErrClientShutdown describes a call made after Close.
	ErrClientShutdown = errors.New("electrum client shutdown")

	// ErrConnectTimeout describes a connection that could not be
	// established within the initialization timeout and retry budget.
	ErrConnectTimeout = errors.New("electrum connect timeout")

	// ErrRequestTimeout describes an RPC whose response did not arrive
	// within the request timeout.
	ErrRequestTimeout = errors.New("electrum request timeout")

	// errNotConnected is returned by the transport when a request races
	// a connection teardown.  The public methods redial and retry once
	// before surfacing it.
	errNotConnected = errors.New("not connected")
)

// RPCError wraps an error payload returned by the electrum server.  The
// server message is preserved verbatim.  It is also used for responses
// that do not match the documented shape of the method.
type RPCError struct {
	Message string
}

// Error satisfies the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("electrum rpc error: %s", e.Message)
}
