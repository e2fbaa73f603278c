// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import (
	"errors"
	"testing"
)

func newTestReplyParser(lines string, bufLen int) *replyParser {
	f := &fakeStack{}
	f.scriptReply(lines)
	return newReplyParser(newTestBufReader(f, bufLen))
}

func TestReplyParserNextLineFinal(t *testing.T) {
	p := newTestReplyParser("250 ok\r\n", 64)
	line, err := p.nextLine()
	if err != nil {
		t.Fatalf("nextLine: %v", err)
	}
	if line.code != code250 || line.text != "ok" || line.hasNext {
		t.Fatalf("line=%+v", line)
	}
}

func TestReplyParserNextLineContinuation(t *testing.T) {
	p := newTestReplyParser("250-hello\r\n", 64)
	line, err := p.nextLine()
	if err != nil {
		t.Fatalf("nextLine: %v", err)
	}
	if line.code != code250 || line.text != "hello" || !line.hasNext {
		t.Fatalf("line=%+v", line)
	}
}

func TestReplyParserNextLineNoText(t *testing.T) {
	p := newTestReplyParser("250\r\n", 64)
	line, err := p.nextLine()
	if err != nil {
		t.Fatalf("nextLine: %v", err)
	}
	if line.code != code250 || line.text != "" || line.hasNext {
		t.Fatalf("line=%+v", line)
	}
}

func TestReplyParserNextLineTooShortIsFormatError(t *testing.T) {
	p := newTestReplyParser("25\r\n", 64)
	_, err := p.nextLine()
	if !errors.Is(err, errFormatInternal) {
		t.Fatalf("err=%v want errFormatInternal", err)
	}
}

func TestReplyParserNextLineBadSeparatorIsFormatError(t *testing.T) {
	p := newTestReplyParser("250*ok\r\n", 64)
	_, err := p.nextLine()
	if !errors.Is(err, errFormatInternal) {
		t.Fatalf("err=%v want errFormatInternal", err)
	}
}

// TestReplyParserExpectCodeConsumesWholeReply covers spec's testable property
// 4: expect_code must read every continuation line and stop exactly at the
// first final line.
func TestReplyParserExpectCodeConsumesWholeReply(t *testing.T) {
	p := newTestReplyParser("250-one\r\n250-two\r\n250 three\r\n250 NEXT REPLY\r\n", 128)
	if err := p.expectCode(code250); err != nil {
		t.Fatalf("expectCode: %v", err)
	}
	// The next reply is untouched.
	line, err := p.nextLine()
	if err != nil || line.text != "NEXT REPLY" {
		t.Fatalf("line=%+v err=%v", line, err)
	}
}

func TestReplyParserExpectCodeMismatch(t *testing.T) {
	p := newTestReplyParser("550 no\r\n", 64)
	err := p.expectCode(code250)
	var rc *ReplyCodeError
	if !errors.As(err, &rc) {
		t.Fatalf("err=%v want *ReplyCodeError", err)
	}
	if rc.Code != ([3]byte{'5', '5', '0'}) {
		t.Fatalf("code=%s", rc.Code)
	}
}

func TestReplyParserExpectCodeMismatchMidContinuation(t *testing.T) {
	p := newTestReplyParser("250-ok\r\n450 later failure\r\n", 64)
	err := p.expectCode(code250)
	var rc *ReplyCodeError
	if !errors.As(err, &rc) {
		t.Fatalf("err=%v want *ReplyCodeError", err)
	}
}
