// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import (
	"errors"
	"testing"
)

func newTestBufWriter(f *fakeStack, bufLen int) *bufWriter {
	st := &stream{stack: f, sock: new(int)}
	return newBufWriter(st, make([]byte, bufLen))
}

func TestBufWriterBuffersUntilFlush(t *testing.T) {
	f := &fakeStack{}
	w := newTestBufWriter(f, 64)

	if err := w.writef("EHLO %s\r\n", "localhost"); err != nil {
		t.Fatalf("writef: %v", err)
	}
	if f.sent.Len() != 0 {
		t.Fatalf("sent=%q before flush, want nothing yet", f.sent.Bytes())
	}
	if err := w.flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if f.sent.String() != "EHLO localhost\r\n" {
		t.Fatalf("sent=%q", f.sent.String())
	}
}

// TestBufWriterFlushIsIdempotent covers spec's testable property 2: a flush
// with nothing buffered is a no-op, so releasing twice never double-sends.
func TestBufWriterFlushIsIdempotent(t *testing.T) {
	f := &fakeStack{}
	w := newTestBufWriter(f, 64)

	if err := w.writef("QUIT\r\n"); err != nil {
		t.Fatalf("writef: %v", err)
	}
	if err := w.flush(); err != nil {
		t.Fatalf("flush 1: %v", err)
	}
	if err := w.flush(); err != nil {
		t.Fatalf("flush 2: %v", err)
	}
	w.release()
	if f.sent.String() != "QUIT\r\n" {
		t.Fatalf("sent=%q, want exactly one QUIT", f.sent.String())
	}
}

func TestBufWriterOverflowTriggersFlush(t *testing.T) {
	f := &fakeStack{}
	w := newTestBufWriter(f, 8)

	if err := w.writef("abcd"); err != nil {
		t.Fatalf("writef 1: %v", err)
	}
	if err := w.writef("efgh"); err != nil { // fills exactly to 8, no overflow yet
		t.Fatalf("writef 2: %v", err)
	}
	if f.sent.Len() != 0 {
		t.Fatalf("sent=%q before overflow", f.sent.Bytes())
	}
	if err := w.writef("i"); err != nil { // forces a flush of the first 8 bytes
		t.Fatalf("writef 3: %v", err)
	}
	if f.sent.String() != "abcdefgh" {
		t.Fatalf("sent=%q after overflow-triggered flush", f.sent.String())
	}
	if err := w.flush(); err != nil {
		t.Fatalf("final flush: %v", err)
	}
	if f.sent.String() != "abcdefghi" {
		t.Fatalf("sent=%q", f.sent.String())
	}
}

func TestBufWriterBypassesBufferForOversizedWrite(t *testing.T) {
	f := &fakeStack{}
	w := newTestBufWriter(f, 4)

	big := "this is much longer than the buffer"
	n, err := w.Write([]byte(big))
	if err != nil || n != len(big) {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	if f.sent.String() != big {
		t.Fatalf("sent=%q, want direct pass-through", f.sent.String())
	}
}

func TestBufWriterStickyErrorPersists(t *testing.T) {
	f := &fakeStack{sendErr: errors.New("connection reset")}
	w := newTestBufWriter(f, 2)

	// "ab" is as large as the buffer, so it bypasses it and goes straight to
	// writeAll; the underlying Send fails outright and the writer remembers
	// that as its sticky error, which the next call returns without writing.
	_ = w.writef("ab")
	err1 := w.writef("cd") // returns the sticky error from "ab"
	if err1 == nil {
		t.Fatalf("want an error once the transport fails")
	}
	err2 := w.writef("ef")
	if !errors.Is(err2, err1) {
		t.Fatalf("second call returned a different error: %v vs %v", err2, err1)
	}
}
