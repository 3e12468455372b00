// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"github.com/btcsuite/btclog"

	"github.com/btcsuite/tapwallet/electrum"
	"github.com/btcsuite/tapwallet/keyring"
)

// log is a logger that is initialized with no output filters.  This
// means the package will not perform any logging by default until the
// caller requests it.
var log btclog.Logger

// The default amount of logging is none.
func init() {
	DisableLog()
}

// DisableLog disables all library log output.  Logging output is disabled
// by default until UseLogger is called.
func DisableLog() {
	UseLogger(btclog.Disabled)
}

// UseLogger uses a specified Logger to output package logging info.  The
// same logger is also installed in the keyring and electrum packages.
func UseLogger(logger btclog.Logger) {
	log = logger

	keyring.UseLogger(logger)
	electrum.UseLogger(logger)
}
