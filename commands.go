// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import (
	"encoding/base64"
	"strings"

	"github.com/emersion/go-sasl"
)

// Reply codes this package checks for. Declared once, matched by value
// against replyLine.code, which is itself a [3]byte.
var (
	code220 = [3]byte{'2', '2', '0'}
	code235 = [3]byte{'2', '3', '5'}
	code250 = [3]byte{'2', '5', '0'}
	code334 = [3]byte{'3', '3', '4'}
	code354 = [3]byte{'3', '5', '4'}
)

// RFC 4616 bounds for AUTH credential assembly: raw credential strings fit in
// 512 octets, their base64 encoding fits in 1024 (spec §4.6).
const (
	maxAuthRawLen     = 512
	maxAuthEncodedLen = 1024
)

// writeRawPhase constructs a bufWriter over the session's single buffer,
// lets fn drive it, flushes, and releases the writer borrow before returning
// — the write half of spec §9's "writer released before reader constructed"
// choreography. release runs via defer so the scope-exit best-effort flush
// (spec §4.4) still happens if fn fails partway through.
func writeRawPhase(sess *Session, fn func(w *bufWriter) error) error {
	w := newBufWriter(sess.stream, sess.buf)
	defer w.release()
	if err := fn(w); err != nil {
		return err
	}
	return w.flush()
}

// writePhase is writeRawPhase specialized to one formatted command line.
func writePhase(sess *Session, format string, args ...any) error {
	return writeRawPhase(sess, func(w *bufWriter) error { return w.writef(format, args...) })
}

// readExpect constructs a fresh bufReader/replyParser over the session's
// buffer and requires the whole (possibly multi-line) reply to carry code.
// A fresh reader per command's read phase is safe because the protocol is
// strictly lock-step (spec §5): the server never sends more than one reply
// per command, so there is never a leftover byte from a prior command's read
// phase to preserve across commands.
func readExpect(sess *Session, code [3]byte) error {
	p := newReplyParser(newBufReader(sess.stream, sess.buf))
	return p.expectCode(code)
}

// expectGreeting reads the server's initial "220 ..." line (spec §4.8 step 3).
func expectGreeting(sess *Session) *ConnectError {
	if err := readExpect(sess, code220); err != nil {
		return responseErrorToConnect(err)
	}
	return nil
}

// ehlo executes the EHLO command (spec §4.6): write the request, discard the
// greeting line, fold every "AUTH ..." extension line into a CapabilitySet.
func ehlo(sess *Session, id ClientID) (CapabilitySet, *ConnectError) {
	if err := writePhase(sess, "EHLO %s\r\n", string(id)); err != nil {
		return 0, responseErrorToConnect(err)
	}

	p := newReplyParser(newBufReader(sess.stream, sess.buf))

	greeting, err := p.nextLine()
	if err != nil {
		return 0, responseErrorToConnect(err)
	}
	if greeting.code != code250 || !greeting.hasNext {
		return 0, &ConnectError{Err: ErrUnexpectedResponse}
	}

	var caps CapabilitySet
	for {
		line, err := p.nextLine()
		if err != nil {
			return 0, responseErrorToConnect(err)
		}
		if line.code != code250 {
			return 0, &ConnectError{Err: ErrUnexpectedResponse}
		}

		words := strings.Split(line.text, " ")
		switch words[0] {
		case "AUTH":
			for _, mech := range words[1:] {
				switch mech {
				case "PLAIN":
					caps |= CapAuthPlain
				case "LOGIN":
					caps |= CapAuthLogin
				}
			}
		default:
			// Extensibility point (spec §9 open question iii): other tokens
			// are recognized and ignored here, never an error.
		}

		if !line.hasNext {
			break
		}
	}
	return caps, nil
}

// mailFrom executes MAIL FROM (spec §4.6).
func mailFrom(sess *Session, sender string) *SendError {
	if err := writePhase(sess, "MAIL FROM:<%s>\r\n", sender); err != nil {
		return responseErrorToSend(err)
	}
	if err := readExpect(sess, code250); err != nil {
		return responseErrorToSend(err)
	}
	return nil
}

// rcptTo executes one RCPT TO per receiver (spec §4.6). An empty slice is a
// caller bug the server will reject; this package does not check it locally.
func rcptTo(sess *Session, receivers []string) *SendError {
	for _, addr := range receivers {
		if err := writePhase(sess, "RCPT TO:<%s>\r\n", addr); err != nil {
			return responseErrorToSend(err)
		}
		if err := readExpect(sess, code250); err != nil {
			return responseErrorToSend(err)
		}
	}
	return nil
}

// dataExec drives the shared DATA choreography (spec §4.6): write "DATA",
// expect 354, write payload via the caller-supplied function (structured Mail
// headers+body, or a raw string — the "common contract" spec §4.6/§9
// describes), expect 250.
func dataExec(sess *Session, payload func(w *bufWriter) error) *SendError {
	if err := writePhase(sess, "DATA\r\n"); err != nil {
		return responseErrorToSend(err)
	}
	if err := readExpect(sess, code354); err != nil {
		return responseErrorToSend(err)
	}

	if err := writeRawPhase(sess, payload); err != nil {
		return responseErrorToSend(err)
	}

	if err := readExpect(sess, code250); err != nil {
		return responseErrorToSend(err)
	}
	return nil
}

// dataForMail sends a structured Mail as the DATA payload.
func dataForMail(sess *Session, mail Mail) *SendError {
	return dataExec(sess, func(w *bufWriter) error { return writeMailPayload(w, mail) })
}

// dataRaw sends a caller-supplied string verbatim as the DATA payload.
func dataRaw(sess *Session, body string) *SendError {
	return dataExec(sess, func(w *bufWriter) error { return writeDotTerminatedBody(w, body) })
}

// writeMailPayload emits headers in the fixed order spec §4.6 mandates —
// From, To, Cc, Subject, a blank line — then the dot-terminated body. Bcc
// addresses are never written here (they only ever reach RCPT TO; spec §4.8,
// testable property 6).
func writeMailPayload(w *bufWriter, mail Mail) error {
	from := ""
	if mail.from != nil {
		from = mail.from.header()
	}
	if err := w.writef("From:%s\r\n", from); err != nil {
		return err
	}
	if err := w.writef("To:%s\r\n", joinMailboxes(mail.to)); err != nil {
		return err
	}
	if err := w.writef("Cc:%s\r\n", joinMailboxes(mail.cc)); err != nil {
		return err
	}
	if err := w.writef("Subject:%s\r\n", mail.subject); err != nil {
		return err
	}
	if err := w.writef("\r\n"); err != nil {
		return err
	}
	return writeDotTerminatedBody(w, mail.body)
}

func joinMailboxes(mbs []Mailbox) string {
	if len(mbs) == 0 {
		return ""
	}
	parts := make([]string, len(mbs))
	for i, mb := range mbs {
		parts[i] = mb.header()
	}
	return strings.Join(parts, ",")
}

// writeDotTerminatedBody emits body verbatim — spec §4.6/§6 deliberately do
// not double leading periods; the body's bytes reach the wire unmodified —
// appends a trailing CRLF if body doesn't already end with one, then the
// ".\r\n" end-of-data sentinel (testable property 5).
func writeDotTerminatedBody(w *bufWriter, body string) error {
	if body != "" {
		if err := w.writef("%s", body); err != nil {
			return err
		}
	}
	if !strings.HasSuffix(body, "\r\n") {
		if err := w.writef("\r\n"); err != nil {
			return err
		}
	}
	return w.writef(".\r\n")
}

// quit writes "QUIT\r\n" and does not wait for the 221 reply (spec §4.6, §9
// open question ii): the transport close is authoritative.
func quit(sess *Session) error {
	return writePhase(sess, "QUIT\r\n")
}

// authPlain executes AUTH PLAIN (spec §4.6) via go-sasl's mechanism, base64
// transcoding through the fixed scratch arrays spec's RFC 4616 bound requires.
func authPlain(sess *Session, cred Credential) error {
	_, ir, err := sasl.NewPlainClient("", cred.Username, cred.Password).Start()
	if err != nil {
		return err
	}
	if err := writeAuthToken(sess, "AUTH PLAIN ", ir); err != nil {
		return err
	}
	if err := readExpect(sess, code235); err != nil {
		return responseErrorToAuth(err)
	}
	return nil
}

// authLogin executes AUTH LOGIN (spec §4.6): challenge/response for username
// then password, via go-sasl's LoginClient. The client's Start supplies the
// username (sent after the first 334); its Next answers the "Password:"
// challenge with the password (sent after the second 334).
func authLogin(sess *Session, cred Credential) error {
	client := sasl.NewLoginClient(cred.Username, cred.Password)
	_, userResp, err := client.Start()
	if err != nil {
		return err
	}

	if err := writePhase(sess, "AUTH LOGIN\r\n"); err != nil {
		return err
	}

	if _, err := readAuthChallenge(sess, code334); err != nil {
		return responseErrorToAuth(err)
	}
	if err := writeAuthToken(sess, "", userResp); err != nil {
		return err
	}

	passChallenge, err := readAuthChallenge(sess, code334)
	if err != nil {
		return responseErrorToAuth(err)
	}
	passResp, err := client.Next(passChallenge)
	if err != nil {
		return err
	}
	if err := writeAuthToken(sess, "", passResp); err != nil {
		return err
	}

	if err := readExpect(sess, code235); err != nil {
		return responseErrorToAuth(err)
	}
	return nil
}

// readAuthChallenge reads one reply line, requires code, and base64-decodes
// its text into a fixed-bound scratch array.
func readAuthChallenge(sess *Session, code [3]byte) ([]byte, error) {
	p := newReplyParser(newBufReader(sess.stream, sess.buf))
	line, err := p.nextLine()
	if err != nil {
		return nil, err
	}
	if line.code != code {
		c := line.code
		return nil, &ReplyCodeError{Code: c}
	}
	if base64.StdEncoding.DecodedLen(len(line.text)) > maxAuthRawLen {
		return nil, errNoMemInternal
	}
	var dec [maxAuthRawLen]byte
	n, err := base64.StdEncoding.Decode(dec[:], []byte(line.text))
	if err != nil {
		return nil, errFormatInternal
	}
	return dec[:n], nil
}

// writeAuthToken base64-encodes raw into a fixed scratch array and writes
// prefix (if any) followed by the encoded token and a trailing CRLF.
func writeAuthToken(sess *Session, prefix string, raw []byte) error {
	if len(raw) > maxAuthRawLen {
		return ErrNoMem
	}
	encLen := base64.StdEncoding.EncodedLen(len(raw))
	if encLen > maxAuthEncodedLen {
		return ErrNoMem
	}
	var enc [maxAuthEncodedLen]byte
	base64.StdEncoding.Encode(enc[:encLen], raw)

	return writeRawPhase(sess, func(w *bufWriter) error {
		if prefix != "" {
			if err := w.writef("%s", prefix); err != nil {
				return err
			}
		}
		if _, err := w.Write(enc[:encLen]); err != nil {
			return err
		}
		return w.writef("\r\n")
	})
}
