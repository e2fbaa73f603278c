// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import (
	"errors"
	"net"
	"runtime"

	"code.hybscloud.com/iox"
)

// Connector builds a Session (spec §4.8): the stack, the single reused
// buffer, the retry policy, and an optional credential to authenticate with
// once connected.
type Connector struct {
	stack TCPStack
	buf   []byte
	opts  Options
	cred  *Credential
}

// NewClient returns a Connector over stack, reusing buf as the single
// read/write buffer for every command of every session it builds. buf should
// be large enough to hold one reply line and one command line; spec §4.3/4.4
// leave its size to the caller.
func NewClient(stack TCPStack, buf []byte, opts ...Option) *Connector {
	o := defaultOptions
	for _, f := range opts {
		f(&o)
	}
	return &Connector{stack: stack, buf: buf, opts: o}
}

// WithAuth configures Connect/ConnectWithHostname to authenticate with cred
// immediately after EHLO, trying PLAIN before LOGIN among whatever the server
// advertised (spec §4.7, §4.8).
func (c *Connector) WithAuth(cred Credential) *Connector {
	c.cred = &cred
	return c
}

// WithClientID overrides the EHLO identity for sessions this Connector builds,
// independent of the DefaultClientID baked into its Options.
func (c *Connector) WithClientID(id string) *Connector {
	c.opts.ClientID = id
	return c
}

// Connect dials remote, busy-waiting the handshake to completion, then runs
// the greeting/EHLO/(optional AUTH) sequence spec §4.8 describes. On any
// failure after the handshake completes, QUIT is sent (best effort, errors
// discarded) and the socket is released before returning — the connect-time
// cleanup guard spec §9's Drop discussion
// describes, realized here as a defer rather than a finalizer because the
// window it covers is deterministic.
func (c *Connector) Connect(remote net.TCPAddr) (*Session, *ConnectError) {
	if c.stack == nil || len(c.buf) == 0 {
		return nil, &ConnectError{Err: ErrInvalidArgument}
	}

	retry := retrier{delay: c.opts.RetryDelay}
	st, err := dialStream(c.stack, remote, retry)
	if err != nil {
		return nil, &ConnectError{Err: err}
	}

	sess := &Session{stream: st, buf: c.buf, retry: retry}
	succeeded := false
	defer func() {
		if !succeeded {
			_ = quit(sess)
			_ = st.close()
		}
	}()

	if cerr := expectGreeting(sess); cerr != nil {
		return nil, cerr
	}

	id := ClientID(c.opts.ClientID)
	if id == "" {
		id = DefaultClientID
	}
	caps, cerr := ehlo(sess, id)
	if cerr != nil {
		return nil, cerr
	}
	sess.caps = caps

	if c.cred != nil {
		if cerr := selectAuth(sess, caps, *c.cred); cerr != nil {
			return nil, cerr
		}
	}

	succeeded = true
	runtime.SetFinalizer(sess, finalizeSession)
	return sess, nil
}

// ConnectWithHostname resolves host via resolver (requesting either address
// family; spec §9 open question (i): exactly one resolved address is used,
// with no fallback across families or across multiple addresses) and connects
// to the result on port.
func (c *Connector) ConnectWithHostname(resolver Resolver, host string, port int) (*Session, *ConnectHostnameError) {
	if resolver == nil {
		return nil, &ConnectHostnameError{DNSErr: ErrInvalidArgument}
	}

	retry := retrier{delay: c.opts.RetryDelay}
	ip, err := resolveOnce(resolver, retry, host)
	if err != nil {
		return nil, &ConnectHostnameError{DNSErr: err}
	}

	sess, cerr := c.Connect(net.TCPAddr{IP: ip, Port: port})
	if cerr != nil {
		return nil, &ConnectHostnameError{Err: cerr}
	}
	return sess, nil
}

// resolveOnce busy-waits one Resolver.GetHostByName call to completion.
func resolveOnce(resolver Resolver, retry retrier, host string) (net.IP, error) {
	for {
		ip, err := resolver.GetHostByName(host, AddrFamilyEither)
		if err == nil {
			return ip, nil
		}
		if !errors.Is(err, iox.ErrWouldBlock) {
			return nil, &IOError{Err: err}
		}
		if !retry.waitOnce() {
			return nil, err
		}
	}
}

// Session is an authenticated (or anonymous) SMTP connection (spec §4.8),
// ready to send one or more messages.
type Session struct {
	stream *stream
	buf    []byte
	retry  retrier
	caps   CapabilitySet
	closed bool
}

// Capabilities returns the extensions the server advertised in EHLO.
func (s *Session) Capabilities() CapabilitySet { return s.caps }

// Send transmits mail: MAIL FROM the mailbox's address, RCPT TO every
// to/cc/bcc address, then DATA with headers built from mail (Bcc is never
// written into those headers; spec §4.8, testable property 6).
func (s *Session) Send(mail Mail) *SendError {
	env := mail.envelope()
	if err := mailFrom(s, env.Sender); err != nil {
		return err
	}
	if err := rcptTo(s, env.Receivers); err != nil {
		return err
	}
	return dataForMail(s, mail)
}

// SendRaw transmits a caller-supplied envelope and verbatim DATA payload,
// bypassing the structured Mail header construction entirely.
func (s *Session) SendRaw(env Envelope, body string) *SendError {
	if err := mailFrom(s, env.Sender); err != nil {
		return err
	}
	if err := rcptTo(s, env.Receivers); err != nil {
		return err
	}
	return dataRaw(s, body)
}

// Close sends QUIT (not waiting for its 221 reply; spec §9 open question
// (ii)) and releases the underlying socket. Safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	runtime.SetFinalizer(s, nil)
	_ = quit(s)
	return s.stream.close()
}

// finalizeSession is the best-effort cleanup run if a Session is garbage
// collected without an explicit Close (spec §9's Drop discussion, mirrored
// the way os.File uses runtime.SetFinalizer). Kept as a standalone function,
// directly callable by tests, so its behavior isn't dependent on GC timing.
func finalizeSession(sess *Session) {
	if sess.closed {
		return
	}
	sess.closed = true
	_ = quit(sess)
	_ = sess.stream.close()
}
