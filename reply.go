// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

// replyFormatError reports a reply line that was too short or carried an
// unrecognized fourth byte (neither '-' nor ' '). Distinct from
// decodeFailedError only in message; both unwrap to errFormatInternal so
// callers classify them identically (spec §4.5).
type replyFormatError struct{ line string }

func (e *replyFormatError) Error() string { return errFormatInternal.Error() + ": " + e.line }
func (e *replyFormatError) Unwrap() error { return errFormatInternal }

// replyLine is one line of a (possibly multi-line) SMTP reply.
type replyLine struct {
	code    [3]byte
	text    string
	hasNext bool
}

// replyParser is a thin view over a bufReader that yields structured reply
// records (spec §4.5). It consumes the bufReader it wraps and must not
// outlive the command that constructed it.
type replyParser struct {
	r *bufReader
}

func newReplyParser(r *bufReader) *replyParser {
	return &replyParser{r: r}
}

// nextLine reads one reply line, validates its shape, and splits it into a
// 3-byte code and text per spec §4.5:
//  1. Read one line.
//  2. Require length >= 3; split into code (3 bytes) and remainder.
//  3. Empty remainder -> text="", hasNext=false. Otherwise the first
//     remainder byte decides continuation: '-' -> hasNext=true,
//     ' ' -> hasNext=false, anything else -> replyFormatError.
func (p *replyParser) nextLine() (replyLine, error) {
	line, err := p.r.readLine()
	if err != nil {
		return replyLine{}, err
	}
	if len(line) < 3 {
		return replyLine{}, &replyFormatError{line: line}
	}

	var rl replyLine
	copy(rl.code[:], line[:3])
	rest := line[3:]

	if rest == "" {
		return rl, nil
	}

	switch rest[0] {
	case '-':
		rl.hasNext = true
	case ' ':
		rl.hasNext = false
	default:
		return replyLine{}, &replyFormatError{line: line}
	}
	rl.text = rest[1:]
	return rl, nil
}

// expectCode loops over lines of a (possibly multi-line) reply, requiring
// every one to carry the expected code, and stops at the first non-continuation
// line (spec §4.5, testable property 4).
func (p *replyParser) expectCode(expected [3]byte) error {
	for {
		line, err := p.nextLine()
		if err != nil {
			return err
		}
		if line.code != expected {
			code := line.code
			return &ReplyCodeError{Code: code}
		}
		if !line.hasNext {
			return nil
		}
	}
}
