// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import "time"

// Options configures a Connector's busy-wait retry policy and default identity.
type Options struct {
	// RetryDelay controls how the session handles iox.ErrWouldBlock from the
	// underlying TCPStack:
	//   - negative: nonblock, surface WouldBlock to the caller immediately
	//   - zero: yield (runtime.Gosched) and retry
	//   - positive: sleep for the duration and retry
	//
	// Spec §5 requires every Send/Receive/Connect call to return only when fully
	// complete or permanently failed, so the default is yield-and-retry, not
	// nonblock — callers that want to compose their own scheduler can opt into
	// WithNonblock explicitly.
	RetryDelay time.Duration

	// ClientID is used as the default EHLO identity when Connector.WithClientID
	// is not called.
	ClientID string
}

var defaultOptions = Options{
	RetryDelay: 0, // default: yield-and-retry
	ClientID:   "localhost",
}

type Option func(*Options)

// WithRetryDelay sets the retry/wait policy used when the underlying transport
// returns iox.ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on iox.ErrWouldBlock.
// This is the default; the option exists to restore it after WithNonblock.
func WithBlock() Option {
	return func(o *Options) { o.RetryDelay = 0 }
}

// WithNonblock forces non-blocking behavior: Send/Receive/Connect return
// iox.ErrWouldBlock immediately instead of busy-waiting. Spec §5 describes this
// as a future-compatible composition point, not the default contract.
func WithNonblock() Option {
	return func(o *Options) { o.RetryDelay = -1 }
}

// WithDefaultClientID sets the identity used for EHLO when the connector's
// WithClientID is not called. The zero value is "localhost" (spec §4.8).
func WithDefaultClientID(id string) Option {
	return func(o *Options) { o.ClientID = id }
}
