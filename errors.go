// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a nil stack, nil buffer, or other invalid configuration.
	ErrInvalidArgument = errors.New("smtpclient: invalid argument")

	// ErrNoMem reports that the caller-supplied buffer filled before a terminator
	// (line, reply, or AUTH scratch bound) was found.
	ErrNoMem = errors.New("smtpclient: buffer exhausted")

	// ErrFormatError reports a malformed reply line (too short, bad continuation byte,
	// non-UTF-8 text) during the greeting, EHLO, or AUTH exchange.
	ErrFormatError = errors.New("smtpclient: malformed reply")

	// ErrUnexpectedResponse reports a reply whose code did not match what the greeting
	// or EHLO exchange required, or a malformed reply during MAIL, RCPT, or DATA.
	ErrUnexpectedResponse = errors.New("smtpclient: unexpected response")

	// ErrAuthUnsupported reports that the server advertised none of the mechanisms this
	// client implements.
	ErrAuthUnsupported = errors.New("smtpclient: no supported auth mechanism advertised")

	// ErrAuthFailed reports that every attempted auth mechanism was rejected.
	ErrAuthFailed = errors.New("smtpclient: authentication failed")

	// ErrSendFailed reports a reply-code mismatch during MAIL, RCPT, or DATA.
	ErrSendFailed = errors.New("smtpclient: send rejected by server")
)

// ReplyCodeError carries the unexpected 3-digit reply code returned by the server.
// It is converted to ErrUnexpectedResponse, ErrAuthFailed, or ErrSendFailed depending
// on which command phase observed it (spec §7 propagation policy); the converted
// error does not carry the code.
type ReplyCodeError struct {
	Code [3]byte
}

func (e *ReplyCodeError) Error() string {
	return fmt.Sprintf("smtpclient: unexpected reply code %q", e.Code[:])
}

// IOError wraps a transport-layer error (anything returned by TCPStack or Resolver
// other than iox.ErrWouldBlock).
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("smtpclient: io error: %v", e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// ConnectError is returned by Connector.Connect.
type ConnectError struct {
	// Err is one of ErrInvalidArgument, ErrNoMem, ErrFormatError, ErrAuthFailed,
	// ErrAuthUnsupported, ErrUnexpectedResponse, or an *IOError; under
	// WithNonblock it may also be iox.ErrWouldBlock.
	Err error
}

func (e *ConnectError) Error() string { return fmt.Sprintf("smtpclient: connect: %v", e.Err) }
func (e *ConnectError) Unwrap() error { return e.Err }

// ConnectHostnameError is returned by Connector.ConnectWithHostname.
type ConnectHostnameError struct {
	// DNSErr is set when resolution itself failed; Err (a *ConnectError) is set when
	// resolution succeeded but the subsequent Connect failed.
	DNSErr error
	Err    error
}

func (e *ConnectHostnameError) Error() string {
	if e.DNSErr != nil {
		return fmt.Sprintf("smtpclient: resolve hostname: %v", e.DNSErr)
	}
	return fmt.Sprintf("smtpclient: connect: %v", e.Err)
}

func (e *ConnectHostnameError) Unwrap() error {
	if e.DNSErr != nil {
		return e.DNSErr
	}
	return e.Err
}

// SendError is returned by Session.Send and Session.SendRaw.
type SendError struct {
	// Err is one of ErrNoMem, ErrSendFailed, ErrUnexpectedResponse, or an *IOError;
	// under WithNonblock it may also be iox.ErrWouldBlock.
	Err error
}

func (e *SendError) Error() string { return fmt.Sprintf("smtpclient: send: %v", e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

// responseErrorToConnect converts a reply-parser error observed during the greeting
// or EHLO exchange into a ConnectError per spec §7: any reply-code mismatch there is
// an UnexpectedResponse, not an auth/send-specific error.
func responseErrorToConnect(err error) *ConnectError {
	switch {
	case errors.Is(err, errNoMemInternal):
		return &ConnectError{Err: ErrNoMem}
	case errors.Is(err, errFormatInternal):
		return &ConnectError{Err: ErrFormatError}
	default:
		var rc *ReplyCodeError
		if errors.As(err, &rc) {
			return &ConnectError{Err: ErrUnexpectedResponse}
		}
		var io *IOError
		if errors.As(err, &io) {
			return &ConnectError{Err: err}
		}
		return &ConnectError{Err: err}
	}
}

// responseErrorToSend converts a reply-parser error observed during MAIL/RCPT/DATA
// into a SendError: a reply-code mismatch there means the server rejected the
// transaction (SendFailed), not a protocol format error.
func responseErrorToSend(err error) *SendError {
	switch {
	case errors.Is(err, errNoMemInternal):
		return &SendError{Err: ErrNoMem}
	case errors.Is(err, errFormatInternal):
		return &SendError{Err: ErrUnexpectedResponse}
	default:
		var rc *ReplyCodeError
		if errors.As(err, &rc) {
			return &SendError{Err: ErrSendFailed}
		}
		var io *IOError
		if errors.As(err, &io) {
			return &SendError{Err: err}
		}
		return &SendError{Err: err}
	}
}

// responseErrorToAuth converts a reply-parser error observed during AUTH PLAIN/LOGIN:
// a reply-code mismatch there means the mechanism was rejected (AuthFailed).
func responseErrorToAuth(err error) error {
	switch {
	case errors.Is(err, errNoMemInternal):
		return ErrNoMem
	case errors.Is(err, errFormatInternal):
		return ErrFormatError
	default:
		var rc *ReplyCodeError
		if errors.As(err, &rc) {
			return ErrAuthFailed
		}
		var io *IOError
		if errors.As(err, &io) {
			return err
		}
		return err
	}
}
