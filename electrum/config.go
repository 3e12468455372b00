// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package electrum

import (
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/btcsuite/tapwallet/netparams"
)

// Protocol selects the transport the client dials the electrum server
// with.
type Protocol string

const (
	// ProtocolTCP is a plain TCP connection.
	ProtocolTCP Protocol = "tcp"

	// ProtocolTLS is a TLS connection.
	ProtocolTLS Protocol = "tls"
)

const (
	// DefaultHost is the electrum server dialed when no host is
	// configured.
	DefaultHost = "electrum.blockstream.info"

	// DefaultPort is the plain TCP port of DefaultHost.
	DefaultPort = 50001

	// DefaultRetryPeriod is the pause between reconnection attempts.
	DefaultRetryPeriod = time.Second

	// DefaultMaxRetry is the number of reconnection attempts made after
	// a failed dial before the initialization is abandoned.
	DefaultMaxRetry = 2

	// DefaultPingPeriod is the keepalive interval.  Electrum servers
	// drop sessions that stay silent for too long.
	DefaultPingPeriod = 120 * time.Second

	// DefaultInitTimeout bounds the total time spent establishing and
	// negotiating a connection.
	DefaultInitTimeout = 15 * time.Second

	// DefaultRequestTimeout bounds each individual RPC.
	DefaultRequestTimeout = 15 * time.Second
)

// Config describes how to reach an electrum server.  The zero value of
// every field is replaced by the package default.
type Config struct {
	// Host is the server name or address.
	Host string

	// Port is the TCP port to dial.
	Port uint16

	// Protocol selects tcp or tls transport.
	Protocol Protocol

	// Network is the bitcoin network the server indexes.  Addresses
	// passed to the client are checked against it.
	Network netparams.Network

	// RetryPeriod separates reconnection attempts.
	RetryPeriod time.Duration

	// MaxRetry is the number of reconnection attempts after a failed
	// dial.
	MaxRetry int

	// PingPeriod is the keepalive interval.
	PingPeriod time.Duration

	// InitTimeout bounds connection establishment.
	InitTimeout time.Duration

	// RequestTimeout bounds each RPC round trip.
	RequestTimeout time.Duration

	// TLSConfig overrides the TLS client configuration used with
	// ProtocolTLS.  Optional.
	TLSConfig *tls.Config
}

// DefaultConfig returns the configuration for the public blockstream
// mainnet server over plain TCP.
func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		Protocol:       ProtocolTCP,
		Network:        netparams.MainNet,
		RetryPeriod:    DefaultRetryPeriod,
		MaxRetry:       DefaultMaxRetry,
		PingPeriod:     DefaultPingPeriod,
		InitTimeout:    DefaultInitTimeout,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// withDefaults returns a copy of the config with every unset field
// replaced by its default.
func (cfg *Config) withDefaults() *Config {
	out := *cfg
	if out.Host == "" {
		out.Host = DefaultHost
	}
	if out.Port == 0 {
		out.Port = DefaultPort
	}
	if out.Protocol == "" {
		out.Protocol = ProtocolTCP
	}
	if out.Network == "" {
		out.Network = netparams.MainNet
	}
	if out.RetryPeriod == 0 {
		out.RetryPeriod = DefaultRetryPeriod
	}
	if out.MaxRetry == 0 {
		out.MaxRetry = DefaultMaxRetry
	}
	if out.PingPeriod == 0 {
		out.PingPeriod = DefaultPingPeriod
	}
	if out.InitTimeout == 0 {
		out.InitTimeout = DefaultInitTimeout
	}
	if out.RequestTimeout == 0 {
		out.RequestTimeout = DefaultRequestTimeout
	}
	return &out
}

// serverAddr returns the host:port string to dial.
func (cfg *Config) serverAddr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))
}
