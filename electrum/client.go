// Copyright (c) 2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package electrum implements a thin client for the electrum server
// JSON-RPC protocol: one persistent TCP or TLS connection carrying
// newline-delimited JSON frames, with responses matched to requests by id.
//
// The connection is established lazily on the first RPC and shared by all
// concurrent callers.  A dropped connection fails the in-flight requests
// and is redialed transparently by the next call.
package electrum

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
	"golang.org/x/sync/singleflight"

	"github.com/btcsuite/tapwallet/netparams"
)

// protocolVersion is the electrum protocol version negotiated on connect.
const protocolVersion = "1.4"

// clientName identifies this client in the server.version handshake.
const clientName = "tapwallet 0.1"

// rpcRequest is a single electrum JSON-RPC request frame.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse is a single electrum JSON-RPC response frame.  Notification
// frames pushed by the server carry no id and are discarded.
type rpcResponse struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcServerError `json:"error"`
}

// rpcServerError tolerates the two error encodings seen in the wild: a
// JSON object with a message field, or a bare string.
type rpcServerError struct {
	Message string
}

// UnmarshalJSON parses either error encoding.
func (e *rpcServerError) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		e.Message = asString
		return nil
	}

	var asObject struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &asObject); err != nil {
		return err
	}
	e.Message = asObject.Message
	return nil
}

// callResult carries a demultiplexed response back to the waiting caller.
type callResult struct {
	result json.RawMessage
	err    error
}

// Client is a connection to a single electrum server.  It is safe for
// concurrent use; requests issued concurrently share the connection and
// are matched to their responses by request id.
type Client struct {
	cfg    *Config
	params *netparams.Params

	nextID    atomic.Uint64
	dialGroup singleflight.Group

	pingTicker ticker.Ticker

	writeMtx sync.Mutex

	mtx     sync.Mutex
	conn    net.Conn
	pending map[uint64]chan *callResult
	closed  bool

	wg   sync.WaitGroup
	quit chan struct{}
}

// New returns a client for the configured server.  No connection is made
// until the first RPC.
func New(cfg *Config) (*Client, error) {
	cfg = cfg.withDefaults()
	params, err := netparams.NetParams(cfg.Network)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:        cfg,
		params:     params,
		pingTicker: ticker.New(cfg.PingPeriod),
		pending:    make(map[uint64]chan *callResult),
		quit:       make(chan struct{}),
	}

	c.wg.Add(1)
	go c.pingHandler()

	return c, nil
}

// Network returns the network the client was configured for.
func (c *Client) Network() netparams.Network {
	return c.cfg.Network
}

// Close tears down the connection and stops the keepalive ticker.  All
// subsequent calls fail with ErrClientShutdown.
func (c *Client) Close() error {
	c.mtx.Lock()
	if c.closed {
		c.mtx.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mtx.Unlock()

	close(c.quit)
	c.pingTicker.Stop()
	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()

	return nil
}

// call performs one RPC against the server, lazily establishing the
// connection first.  A request that races a connection teardown is
// retried once on a fresh connection.
func (c *Client) call(ctx context.Context, method string,
	params []interface{}, result interface{}) error {

	for attempt := 0; ; attempt++ {
		if err := c.ensureConnected(ctx); err != nil {
			return err
		}

		err := c.do(ctx, method, params, result)
		if errors.Is(err, errNotConnected) && attempt == 0 {
			continue
		}
		return err
	}
}

// ensureConnected dials the server if no connection is up.  Concurrent
// callers share a single connection attempt.
func (c *Client) ensureConnected(ctx context.Context) error {
	c.mtx.Lock()
	if c.closed {
		c.mtx.Unlock()
		return ErrClientShutdown
	}
	connected := c.conn != nil
	c.mtx.Unlock()

	if connected {
		return nil
	}

	resc := c.dialGroup.DoChan("dial", func() (interface{}, error) {
		return nil, c.connect()
	})

	select {
	case res := <-resc:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.quit:
		return ErrClientShutdown
	}
}

// connect dials the server and negotiates the protocol version, retrying
// up to MaxRetry times with RetryPeriod between attempts, all bounded by
// InitTimeout.
func (c *Client) connect() error {
	deadline := time.Now().Add(c.cfg.InitTimeout)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetry; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.cfg.RetryPeriod):
			case <-c.quit:
				return ErrClientShutdown
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}

		conn, err := c.dial(remaining)
		if err != nil {
			lastErr = err
			log.Warnf("Unable to connect to electrum server "+
				"%s: %v", c.cfg.serverAddr(), err)
			continue
		}

		c.mtx.Lock()
		if c.closed {
			c.mtx.Unlock()
			conn.Close()
			return ErrClientShutdown
		}
		c.conn = conn
		c.mtx.Unlock()

		c.wg.Add(1)
		go c.readHandler(conn)

		versionCtx, cancel := context.WithTimeout(
			context.Background(), remaining,
		)
		software, protocol, err := c.serverVersion(versionCtx)
		cancel()
		if err != nil {
			lastErr = err
			c.teardownConn(conn, err)
			continue
		}

		log.Infof("Connected to electrum server %s (%s, protocol "+
			"%s)", c.cfg.serverAddr(), software, protocol)
		c.pingTicker.Resume()

		return nil
	}

	if lastErr != nil {
		return &timeoutError{kind: ErrConnectTimeout, cause: lastErr}
	}
	return ErrConnectTimeout
}

// timeoutError attaches the underlying dial failure to a timeout
// sentinel.
type timeoutError struct {
	kind  error
	cause error
}

func (e *timeoutError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *timeoutError) Unwrap() error { return e.kind }

// dial opens the raw transport.
func (c *Client) dial(timeout time.Duration) (net.Conn, error) {
	dialer := net.Dialer{Timeout: timeout}
	addr := c.cfg.serverAddr()

	if c.cfg.Protocol == ProtocolTLS {
		tlsCfg := c.cfg.TLSConfig
		if tlsCfg == nil {
			tlsCfg = &tls.Config{ServerName: c.cfg.Host}
		}
		return tls.DialWithDialer(&dialer, "tcp", addr, tlsCfg)
	}
	return dialer.Dial("tcp", addr)
}

// readHandler consumes newline-delimited frames from the connection and
// routes each response to the caller waiting on its id.  Malformed frames
// and unknown ids are discarded without poisoning the connection.
//
// It MUST be run as a goroutine.
func (c *Client) readHandler(conn net.Conn) {
	defer c.wg.Done()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			c.teardownConn(conn, err)
			return
		}

		var resp rpcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			log.Warnf("Discarding malformed frame from electrum "+
				"server: %v", err)
			continue
		}
		if resp.ID == nil {
			log.Debugf("Discarding notification frame from " +
				"electrum server")
			continue
		}

		c.mtx.Lock()
		ch, ok := c.pending[*resp.ID]
		if ok {
			delete(c.pending, *resp.ID)
		}
		c.mtx.Unlock()

		if !ok {
			log.Debugf("Discarding response with unknown id %d",
				*resp.ID)
			continue
		}

		if resp.Error != nil {
			ch <- &callResult{
				err: &RPCError{Message: resp.Error.Message},
			}
			continue
		}
		ch <- &callResult{result: resp.Result}
	}
}

// teardownConn closes the given connection and fails every in-flight
// request, unless a newer connection already replaced it.
func (c *Client) teardownConn(conn net.Conn, err error) {
	c.mtx.Lock()
	if c.conn != conn {
		c.mtx.Unlock()
		return
	}
	c.conn = nil
	pending := c.pending
	c.pending = make(map[uint64]chan *callResult)
	closed := c.closed
	c.mtx.Unlock()

	conn.Close()
	c.pingTicker.Pause()

	for _, ch := range pending {
		ch <- &callResult{err: err}
	}

	if !closed {
		log.Warnf("Electrum connection to %s lost: %v",
			c.cfg.serverAddr(), err)
	}
}

// do writes one request on the current connection and waits for its
// response, the request timeout, context cancellation or shutdown,
// whichever comes first.
func (c *Client) do(ctx context.Context, method string,
	params []interface{}, result interface{}) error {

	if params == nil {
		params = []interface{}{}
	}

	id := c.nextID.Add(1)
	payload, err := json.Marshal(&rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	payload = append(payload, '\n')

	ch := make(chan *callResult, 1)

	c.mtx.Lock()
	if c.closed {
		c.mtx.Unlock()
		return ErrClientShutdown
	}
	conn := c.conn
	if conn == nil {
		c.mtx.Unlock()
		return errNotConnected
	}
	c.pending[id] = ch
	c.mtx.Unlock()

	c.writeMtx.Lock()
	conn.SetWriteDeadline(time.Now().Add(c.cfg.RequestTimeout))
	_, err = conn.Write(payload)
	c.writeMtx.Unlock()
	if err != nil {
		// The teardown delivers the error to our pending channel as
		// well, so fall through to the select below.
		c.teardownConn(conn, err)
	}

	timeout := time.NewTimer(c.cfg.RequestTimeout)
	defer timeout.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return res.err
		}
		if result != nil {
			if err := json.Unmarshal(res.result, result); err != nil {
				return &RPCError{
					Message: "unexpected " + method +
						" response: " + err.Error(),
				}
			}
		}
		return nil

	case <-timeout.C:
		c.unregister(id)
		return ErrRequestTimeout

	case <-ctx.Done():
		c.unregister(id)
		return ctx.Err()

	case <-c.quit:
		c.unregister(id)
		return ErrClientShutdown
	}
}

// unregister drops a pending request that is no longer waited on.
func (c *Client) unregister(id uint64) {
	c.mtx.Lock()
	delete(c.pending, id)
	c.mtx.Unlock()
}

// pingHandler keeps the session alive by pinging the server on every tick
// while a connection is up.
//
// It MUST be run as a goroutine.
func (c *Client) pingHandler() {
	defer c.wg.Done()

	for {
		select {
		case <-c.pingTicker.Ticks():
			c.mtx.Lock()
			connected := c.conn != nil
			c.mtx.Unlock()
			if !connected {
				continue
			}

			ctx, cancel := context.WithTimeout(
				context.Background(), c.cfg.RequestTimeout,
			)
			if err := c.do(ctx, "server.ping", nil, nil); err != nil {
				log.Debugf("Keepalive ping failed: %v", err)
			}
			cancel()

		case <-c.quit:
			return
		}
	}
}
