// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import "fmt"

// bufWriter is the buffered writer (spec §4.4): a borrowed buffer and a fill
// count. Writes accumulate in the buffer and flush on overflow or on release.
//
// Write implements io.Writer so fmt.Fprintf can drive it directly (writef
// below); per the "errors are values" idiom it remembers the first
// underlying-write error and every subsequent call becomes a no-op that
// returns that same error, matching spec §4.4's "first underlying write
// error is remembered and surfaced".
type bufWriter struct {
	dst    *stream
	buf    []byte
	filled int
	err    error
}

func newBufWriter(dst *stream, buf []byte) *bufWriter {
	return &bufWriter{dst: dst, buf: buf}
}

// Write implements io.Writer over the buffering path described in spec §4.4:
// flush first if the new data would overflow the buffer, bypass the buffer
// entirely for writes at least as large as its capacity, otherwise copy in.
func (w *bufWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.filled+len(p) > len(w.buf) {
		if err := w.flush(); err != nil {
			return 0, err
		}
	}
	if len(p) >= len(w.buf) {
		if err := w.dst.writeAll(p); err != nil {
			w.err = err
			return 0, err
		}
		return len(p), nil
	}
	n := copy(w.buf[w.filled:], p)
	w.filled += n
	return n, nil
}

// writef formats per format/args through Write, surfacing the sticky error if
// one has already occurred and recording any new one it observes.
func (w *bufWriter) writef(format string, args ...any) error {
	if w.err != nil {
		return w.err
	}
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		w.err = err
		return err
	}
	return nil
}

// flush write-alls the filled prefix and resets filled to zero. A second
// flush call (nothing buffered) is a no-op that writes zero bytes.
func (w *bufWriter) flush() error {
	if w.filled == 0 {
		return nil
	}
	if err := w.dst.writeAll(w.buf[:w.filled]); err != nil {
		w.err = err
		return err
	}
	w.filled = 0
	return nil
}

// release performs the best-effort flush a scope-exit guarantees (spec §4.4,
// §9): any error is discarded, matching the original source's Drop impl.
func (w *bufWriter) release() {
	_ = w.flush()
}
