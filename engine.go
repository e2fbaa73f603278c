// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import (
	"errors"
	"io"
	"runtime"
	"time"

	"code.hybscloud.com/iox"
)

// readFunc and writeFunc abstract a single non-blocking read/write attempt,
// e.g. TCPStack.Receive/Send bound to one socket, or an io.Reader/io.Writer's
// Read/Write method value. Using function values instead of io.Reader/io.Writer
// avoids an interface-boxing allocation per call for the common case of a bound
// method value.
type readFunc func(p []byte) (int, error)
type writeFunc func(p []byte) (int, error)

// retrier holds the busy-wait policy (spec §5) shared by the transport stream,
// the buffered reader, and the buffered writer. A zero value yields-and-retries,
// matching the session's default (options.go's defaultOptions).
type retrier struct {
	delay time.Duration
}

// waitOnce reports whether the caller should retry after observing
// iox.ErrWouldBlock. It never itself returns an error: RetryDelay < 0 simply
// tells the caller to stop retrying and propagate WouldBlock upward.
func (r retrier) waitOnce() bool {
	switch {
	case r.delay < 0:
		return false
	case r.delay == 0:
		runtime.Gosched()
		return true
	default:
		time.Sleep(r.delay)
		return true
	}
}

// readOnce reads from rd, busy-waiting across iox.ErrWouldBlock per the retry
// policy. Unlike writeOnce, it has no broken-Reader guard: TCPStack.Receive's
// (0, nil) is the documented end-of-stream signal (transport.go), and
// bufReader.readUntil relies on readOnce passing that through untouched.
func (r retrier) readOnce(rd readFunc, p []byte) (n int, err error) {
	for {
		n, err = rd(p)
		if n > 0 || err == nil {
			return n, err
		}
		if !errors.Is(err, iox.ErrWouldBlock) {
			return n, err
		}
		if !r.waitOnce() {
			return n, err
		}
	}
}

// writeOnce writes via wr, busy-waiting across iox.ErrWouldBlock per the retry
// policy. It guards against Writers that violate the io.Writer contract by
// returning (0, nil) on a non-empty buffer, which would otherwise spin the
// caller forever.
func (r retrier) writeOnce(wr writeFunc, p []byte) (n int, err error) {
	for {
		n, err = wr(p)
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrShortWrite
		}
		if n > 0 || err == nil {
			return n, err
		}
		if !errors.Is(err, iox.ErrWouldBlock) {
			return n, err
		}
		if !r.waitOnce() {
			return n, err
		}
	}
}

// writeAll spins on writeOnce until all of p has been written or an error
// surfaces. Mirrors the original source's Write::write_all (io/write.rs).
func (r retrier) writeAll(wr writeFunc, p []byte) error {
	for len(p) > 0 {
		n, err := r.writeOnce(wr, p)
		p = p[n:]
		if err != nil {
			return err
		}
	}
	return nil
}

// doOnce retries a no-input, no-output-besides-error operation (Connect) across
// iox.ErrWouldBlock, e.g. the transport's non-blocking connect handshake.
func (r retrier) doOnce(op func() error) error {
	for {
		err := op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, iox.ErrWouldBlock) {
			return err
		}
		if !r.waitOnce() {
			return err
		}
	}
}
