// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import "errors"

// authMechanisms pairs each capability flag with the command that executes it.
// Order here is the trial order: PLAIN before LOGIN (spec §4.7).
var authMechanisms = [...]struct {
	cap CapabilitySet
	run func(sess *Session, cred Credential) error
}{
	{CapAuthPlain, authPlain},
	{CapAuthLogin, authLogin},
}

// selectAuth tries every mechanism the server advertised (caps), in PLAIN-then-
// LOGIN order, stopping at the first success. A mechanism rejected with
// ErrAuthFailed falls through to the next one; any other error propagates
// immediately, since it signals something other than "this mechanism was
// rejected" (a transport failure, a malformed challenge). If caps advertises
// none of the mechanisms this client implements, returns ErrAuthUnsupported.
// If every advertised mechanism is tried and rejected, returns ErrAuthFailed
// (spec §4.7).
func selectAuth(sess *Session, caps CapabilitySet, cred Credential) *ConnectError {
	tried := false
	for _, m := range authMechanisms {
		if !caps.Has(m.cap) {
			continue
		}
		tried = true
		err := m.run(sess, cred)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrAuthFailed) {
			return &ConnectError{Err: err}
		}
	}
	if !tried {
		return &ConnectError{Err: ErrAuthUnsupported}
	}
	return &ConnectError{Err: ErrAuthFailed}
}
