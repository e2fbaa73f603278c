// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package smtpclient implements a buffer-reuse-discipline SMTP submission
// client for constrained environments that expose a minimal, possibly
// non-blocking, TCP client abstraction.
//
// Semantics and design:
//   - Non-blocking first: the TCPStack and Resolver capabilities this package
//     is built on signal iox.ErrWouldBlock when an operation cannot currently
//     complete. Every exported Session/Connector method busy-waits across that
//     signal by default (see Option, WithRetryDelay) so that, per the external
//     contract, a call returns only once it is fully complete or permanently
//     failed.
//   - Single buffer: the caller supplies one []byte buffer for the life of a
//     session. Every command's write phase and read phase reuse that same
//     buffer; no command allocates a new backing array for buffering.
//   - io compatibility: the buffered reader and writer types are scoped views
//     over the transport stream and never exist at the same time (spec §9):
//     a command's writer borrow is flushed and released before its reader
//     borrow is constructed.
package smtpclient

import (
	"errors"
	"net"

	"code.hybscloud.com/iox"
)

// Socket is an opaque handle to one TCP connection, managed entirely by the
// TCPStack implementation. This package never inspects it.
type Socket any

// TCPStack is the external TCP-client capability a Session is built on (spec
// §6). Implementations may be backed by a conventional host stack (net.Conn)
// or a constrained target's lwIP-style non-blocking stack; both report
// iox.ErrWouldBlock from Connect/Send/Receive when an operation would block.
type TCPStack interface {
	// Socket allocates a new, unconnected socket handle.
	Socket() (Socket, error)
	// Connect begins or continues connecting sock to remote. Returns
	// iox.ErrWouldBlock while the handshake is in progress.
	Connect(sock Socket, remote net.TCPAddr) error
	// Send writes data to sock. Returns iox.ErrWouldBlock if the socket's send
	// buffer is currently full.
	Send(sock Socket, data []byte) (int, error)
	// Receive reads into buf from sock. A result of (0, nil) denotes
	// end-of-stream; iox.ErrWouldBlock means no data is currently available.
	Receive(sock Socket, buf []byte) (int, error)
	// Close releases sock. Implementations must tolerate being called at most
	// once per socket; the stream adapter never calls it twice.
	Close(sock Socket) error
}

// Resolver is the external DNS capability optionally used by
// Connector.ConnectWithHostname (spec §6).
type Resolver interface {
	// GetHostByName resolves name to one address of the requested family.
	// Returns iox.ErrWouldBlock while resolution is in progress.
	GetHostByName(name string, family AddrFamily) (net.IP, error)
}

// stream is the transport stream adapter (spec §4.2): it owns a (stack,
// socket) pair for the lifetime of one session and guarantees the socket is
// released exactly once, regardless of whether the caller calls close
// explicitly or the stream is abandoned after a failure.
type stream struct {
	stack TCPStack
	sock  Socket
	retry retrier

	closed bool
}

// dialStream allocates a socket and busy-waits the connect handshake to
// completion. On failure the socket is released before returning, matching
// spec §4.2's "socket is closed via the stack exactly once" guarantee even
// when connect itself fails partway through.
func dialStream(stack TCPStack, remote net.TCPAddr, retry retrier) (*stream, error) {
	if stack == nil {
		return nil, ErrInvalidArgument
	}
	sock, err := stack.Socket()
	if err != nil {
		return nil, &IOError{Err: err}
	}
	st := &stream{stack: stack, sock: sock, retry: retry}
	connectErr := retry.doOnce(func() error { return stack.Connect(sock, remote) })
	if connectErr != nil {
		_ = stack.Close(sock)
		st.closed = true
		if errors.Is(connectErr, iox.ErrWouldBlock) {
			return nil, connectErr
		}
		return nil, &IOError{Err: connectErr}
	}
	return st, nil
}

// read performs one busy-wait-retried receive, reusing dst as the destination.
func (s *stream) read(dst []byte) (int, error) {
	n, err := s.retry.readOnce(func(p []byte) (int, error) { return s.stack.Receive(s.sock, p) }, dst)
	if err != nil && !errors.Is(err, iox.ErrWouldBlock) {
		return n, &IOError{Err: err}
	}
	return n, err
}

// writeAll performs a busy-wait-retried send of the entire slice.
func (s *stream) writeAll(src []byte) error {
	err := s.retry.writeAll(func(p []byte) (int, error) { return s.stack.Send(s.sock, p) }, src)
	if err != nil && !errors.Is(err, iox.ErrWouldBlock) {
		return &IOError{Err: err}
	}
	return err
}

// close releases the socket. Safe to call more than once; only the first call
// reaches the stack. Explicit calls (Session.Close) surface the stack's error;
// the best-effort drop path (session finalizer) discards it (spec §7).
func (s *stream) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.stack.Close(s.sock); err != nil {
		return &IOError{Err: err}
	}
	return nil
}
