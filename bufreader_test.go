// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import (
	"errors"
	"testing"
)

func newTestBufReader(f *fakeStack, bufLen int) *bufReader {
	st := &stream{stack: f, sock: new(int)}
	return newBufReader(st, make([]byte, bufLen))
}

func TestBufReaderReadLineBasic(t *testing.T) {
	f := &fakeStack{}
	f.scriptReply("250 ok\r\n")
	r := newTestBufReader(f, 64)

	line, err := r.readLine()
	if err != nil {
		t.Fatalf("readLine: %v", err)
	}
	if line != "250 ok" {
		t.Fatalf("line=%q", line)
	}
}

// TestBufReaderCompactionReclaimsConsumedSpace exercises read_until's
// compaction path (spec's testable property 1): once the first line has been
// consumed, the bytes it occupied at the front of the buffer must be
// reclaimed so a second line can fill the rest of an undersized buffer.
func TestBufReaderCompactionReclaimsConsumedSpace(t *testing.T) {
	f := &fakeStack{}
	f.recvSteps = []step{
		{b: []byte("ab\r\ncd")}, // first line plus 2 leftover bytes of the second
		{b: []byte("ef")},
		{b: []byte("gh\r\n")},
	}
	r := newTestBufReader(f, 8) // exactly as large as the second line's content

	first, err := r.readLine()
	if err != nil || first != "ab" {
		t.Fatalf("first=%q err=%v", first, err)
	}

	second, err := r.readLine()
	if err != nil {
		t.Fatalf("readLine: %v", err)
	}
	if second != "cdefgh" {
		t.Fatalf("second=%q want %q (compaction must reclaim the first line's space)", second, "cdefgh")
	}
}

func TestBufReaderMultipleLinesShareBuffer(t *testing.T) {
	f := &fakeStack{}
	f.scriptReply("250-first\r\n250 second\r\n")
	r := newTestBufReader(f, 64)

	l1, err := r.readLine()
	if err != nil || l1 != "250-first" {
		t.Fatalf("line1=%q err=%v", l1, err)
	}
	l2, err := r.readLine()
	if err != nil || l2 != "250 second" {
		t.Fatalf("line2=%q err=%v", l2, err)
	}
}

func TestBufReaderFullBufferWithoutTerminator(t *testing.T) {
	f := &fakeStack{}
	f.recvSteps = []step{{b: []byte("no newline here")}}
	r := newTestBufReader(f, 8)

	_, err := r.readUntil(func(b byte) bool { return b == '\n' })
	var fbe *fullBufferError
	if !errors.As(err, &fbe) {
		t.Fatalf("err=%v want *fullBufferError", err)
	}
	if !errors.Is(err, errNoMemInternal) {
		t.Fatalf("err does not unwrap to errNoMemInternal")
	}
}

func TestBufReaderEOFReturnsWhatWasBuffered(t *testing.T) {
	f := &fakeStack{}
	f.recvSteps = []step{{b: []byte("partial")}} // then (0, nil): transport EOF
	r := newTestBufReader(f, 64)

	data, err := r.readUntil(func(b byte) bool { return b == '\n' })
	if err != nil {
		t.Fatalf("err=%v want nil on EOF", err)
	}
	if string(data) != "partial" {
		t.Fatalf("data=%q", data)
	}
}

func TestBufReaderNonUTF8IsDecodeFailed(t *testing.T) {
	f := &fakeStack{}
	f.recvSteps = []step{{b: []byte{0xff, 0xfe, '\n'}}}
	r := newTestBufReader(f, 64)

	_, err := r.readLine()
	var dfe *decodeFailedError
	if !errors.As(err, &dfe) {
		t.Fatalf("err=%v want *decodeFailedError", err)
	}
	if !errors.Is(err, errFormatInternal) {
		t.Fatalf("err does not unwrap to errFormatInternal")
	}
}
