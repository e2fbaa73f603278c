// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

// CapabilitySet is a fixed-width bitmask over the closed enumeration of AUTH
// mechanisms this client understands (spec §3, §4.7). New mechanisms extend
// the enumeration without changing the wire format.
type CapabilitySet uint8

const (
	CapAuthPlain CapabilitySet = 1 << iota
	CapAuthLogin
)

// Has reports whether every flag set in want is also set in c.
func (c CapabilitySet) Has(want CapabilitySet) bool { return c&want == want }

// ClientID identifies the client in EHLO (spec §3, an SMTP domain or address
// literal per RFC 5321 §4.1.1.1). DefaultClientID is used when a Connector's
// WithClientID is never called.
type ClientID string

// DefaultClientID is the identity used when no explicit ClientID is configured.
const DefaultClientID ClientID = "localhost"

// NewClientID constructs a ClientID from an SMTP domain or address literal.
func NewClientID(id string) ClientID { return ClientID(id) }

// Credential is a username/password pair for AUTH PLAIN/LOGIN (spec §3).
type Credential struct {
	Username string
	Password string
}

// NewCredential constructs a Credential. Both fields are expected to be
// non-empty; neither NewCredential nor Connector.WithAuth checks this.
func NewCredential(username, password string) Credential {
	return Credential{Username: username, Password: password}
}

// Mailbox is a display name (optional) paired with an address (spec §3).
type Mailbox struct {
	Name    string // empty means no display name
	Address string
}

// NewMailbox constructs a Mailbox with no display name.
func NewMailbox(address string) Mailbox {
	return Mailbox{Address: address}
}

// NewMailboxWithName constructs a Mailbox carrying a display name.
func NewMailboxWithName(name, address string) Mailbox {
	return Mailbox{Name: name, Address: address}
}

// header renders the mailbox the way Data's headers expect: "name <addr>" if
// a name is present, else the bare address.
func (m Mailbox) header() string {
	if m.Name == "" {
		return m.Address
	}
	return m.Name + " <" + m.Address + ">"
}

// Mail is a structured message for Session.Send (spec §3). It is built
// fluently, mirroring the original source's builder (message.rs):
//
//	mail := smtpclient.NewMail().
//		From(smtpclient.NewMailbox("a@example.com")).
//		To(smtpclient.NewMailbox("b@example.com")).
//		Subject("hello").
//		Body("hi there")
type Mail struct {
	from    *Mailbox
	to      []Mailbox
	cc      []Mailbox
	bcc     []Mailbox
	subject string
	body    string
}

// NewMail returns an empty Mail ready for fluent configuration.
func NewMail() Mail { return Mail{} }

func (m Mail) From(v Mailbox) Mail { m.from = &v; return m }
func (m Mail) To(v ...Mailbox) Mail {
	m.to = append(append([]Mailbox(nil), m.to...), v...)
	return m
}
func (m Mail) Cc(v ...Mailbox) Mail {
	m.cc = append(append([]Mailbox(nil), m.cc...), v...)
	return m
}
func (m Mail) Bcc(v ...Mailbox) Mail {
	m.bcc = append(append([]Mailbox(nil), m.bcc...), v...)
	return m
}
func (m Mail) Subject(v string) Mail { m.subject = v; return m }
func (m Mail) Body(v string) Mail    { m.body = v; return m }

// envelope computes the MAIL/RCPT addresses for this Mail: sender is the
// From mailbox's address if present, receivers are to+cc+bcc concatenated.
// Bcc addresses are included here (they must reach RCPT TO) but never in the
// headers writeMailPayload emits (spec §4.8, testable property 6).
func (m Mail) envelope() Envelope {
	sender := ""
	if m.from != nil {
		sender = m.from.Address
	}
	receivers := make([]string, 0, len(m.to)+len(m.cc)+len(m.bcc))
	for _, mb := range m.to {
		receivers = append(receivers, mb.Address)
	}
	for _, mb := range m.cc {
		receivers = append(receivers, mb.Address)
	}
	for _, mb := range m.bcc {
		receivers = append(receivers, mb.Address)
	}
	return Envelope{Sender: sender, Receivers: receivers}
}

// Envelope carries the MAIL FROM / RCPT TO addresses for Session.SendRaw,
// distinct from message headers (spec §3, Glossary).
type Envelope struct {
	// Sender is written as MAIL FROM:<Sender>. Empty means a null reverse-path
	// (MAIL FROM:<>), used for bounce messages.
	Sender string
	// Receivers is written as one RCPT TO:<addr> per entry. The server
	// rejects an empty list; this package does not check it locally (spec
	// §4.6).
	Receivers []string
}
