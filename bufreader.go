// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// errNoMemInternal and errFormatInternal are the sentinel causes behind
// fullBufferError and decodeFailedError. They exist so errors.go's
// responseErrorTo{Connect,Send,Auth} can classify a bufReader failure with a
// single errors.Is check regardless of which data the concrete error carries
// (spec §4.5's FullBuffer -> NoMem, DecodeFailed -> FormatError conversions).
var (
	errNoMemInternal  = errors.New("smtpclient: buffer filled before terminator")
	errFormatInternal = errors.New("smtpclient: non-UTF-8 data")
)

// fullBufferError reports that read_until's predicate never matched before the
// buffer filled. It still carries whatever was drained, per spec §4.3, though
// the reply parser built atop it (reply.go) only surfaces the NoMem cause.
type fullBufferError struct{ data []byte }

func (e *fullBufferError) Error() string { return errNoMemInternal.Error() }
func (e *fullBufferError) Unwrap() error { return errNoMemInternal }

// decodeFailedError reports that a consumed line was not valid UTF-8.
type decodeFailedError struct{ data []byte }

func (e *decodeFailedError) Error() string { return errFormatInternal.Error() }
func (e *decodeFailedError) Unwrap() error { return errFormatInternal }

// bufReader is the buffered reader (spec §4.3): a borrowed mutable buffer
// holding a [start,end) filled range, with line-oriented read-until and
// compaction. It never allocates; every returned slice aliases buf.
type bufReader struct {
	src   *stream
	buf   []byte
	start int
	end   int
}

func newBufReader(src *stream, buf []byte) *bufReader {
	return &bufReader{src: src, buf: buf}
}

func (r *bufReader) filled() []byte { return r.buf[r.start:r.end] }

// consume removes amt bytes from the front of the filled range and returns them.
func (r *bufReader) consume(amt int) []byte {
	consumed := r.buf[r.start : r.start+amt]
	r.start += amt
	if r.start == r.end {
		r.start, r.end = 0, 0
	}
	return consumed
}

// readUntil returns the next contiguous block up to and including the first
// byte for which pred holds, refilling from the transport as needed.
//
//   - If the buffer fills before pred matches, returns a *fullBufferError
//     carrying everything drained so far.
//   - If the transport reaches EOF before pred matches, returns whatever had
//     been buffered, with a nil error.
//   - Otherwise returns the matched block (including the terminator byte).
//
// Mirrors the original source's BufReader::read_until (io/read.rs), including
// its compaction rule: the filled range is slid to the front of the buffer only
// when it reaches the buffer's physical end with start > 0; otherwise the refill
// goes into the free space after end.
func (r *bufReader) readUntil(pred func(byte) bool) ([]byte, error) {
	checkedBlockSize := 0
	uncheckedBlock := r.filled()

	for {
		if pos := indexByte(uncheckedBlock, pred); pos >= 0 {
			return r.consume(checkedBlockSize + pos + 1), nil
		}

		if r.end >= len(r.buf) {
			if r.start == 0 {
				return nil, &fullBufferError{data: r.consume(r.end - r.start)}
			}
			// Slide the filled range to the front to make room for a refill.
			copy(r.buf, r.buf[r.start:r.end])
			r.end -= r.start
			r.start = 0
		}

		checkedBlockSize = r.end - r.start

		n, err := r.src.read(r.buf[r.end:])
		newly := r.buf[r.end : r.end+n]
		r.end += n
		if err != nil {
			return nil, err
		}
		if len(newly) == 0 {
			// Transport EOF: return what had been buffered, unmatched.
			return r.consume(checkedBlockSize), nil
		}
		uncheckedBlock = newly
	}
}

// readLine consumes one line via readUntil(=='\n'), then strips a trailing
// "\r\n" or "\n" and validates the remainder as UTF-8.
func (r *bufReader) readLine() (string, error) {
	data, err := r.readUntil(func(b byte) bool { return b == '\n' })
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", &decodeFailedError{data: data}
	}
	line := string(data)
	if strings.HasSuffix(line, "\n") {
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
	}
	return line, nil
}

func indexByte(b []byte, pred func(byte) bool) int {
	for i, c := range b {
		if pred(c) {
			return i
		}
	}
	return -1
}
