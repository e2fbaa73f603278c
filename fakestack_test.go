// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smtpclient

import (
	"bytes"
	"net"

	"code.hybscloud.com/iox"
)

// step is one scripted Receive outcome: either some bytes or an error,
// mirroring the teacher's scriptedReader (framer_test.go).
type step struct {
	b   []byte
	err error
}

// fakeStack is a minimal scripted TCPStack. Receive plays back recvSteps in
// order; Send records everything written to sent, optionally truncating to
// sendLimit bytes per call to simulate a short/would-block write.
type fakeStack struct {
	connectErr  error
	connectDone bool

	recvSteps []step
	recvStep  int
	recvOff   int

	sendLimit int
	sendErr   error
	sent      bytes.Buffer

	closeCalls int
}

func (f *fakeStack) Socket() (Socket, error) { return new(int), nil }

func (f *fakeStack) Connect(Socket, net.TCPAddr) error {
	if f.connectDone {
		return nil
	}
	if f.connectErr != nil {
		err := f.connectErr
		f.connectErr = nil
		return err
	}
	f.connectDone = true
	return nil
}

func (f *fakeStack) Send(_ Socket, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	n := len(data)
	if f.sendLimit > 0 && n > f.sendLimit {
		n = f.sendLimit
	}
	f.sent.Write(data[:n])
	if n < len(data) {
		return n, iox.ErrWouldBlock
	}
	return n, nil
}

func (f *fakeStack) Receive(_ Socket, buf []byte) (int, error) {
	for {
		if f.recvStep >= len(f.recvSteps) {
			return 0, nil
		}
		st := f.recvSteps[f.recvStep]
		if len(st.b) == 0 {
			f.recvStep++
			f.recvOff = 0
			return 0, st.err
		}
		if f.recvOff >= len(st.b) {
			f.recvStep++
			f.recvOff = 0
			continue
		}
		n := copy(buf, st.b[f.recvOff:])
		f.recvOff += n
		return n, nil
	}
}

func (f *fakeStack) Close(Socket) error {
	f.closeCalls++
	return nil
}

// scriptReply appends s (a raw SMTP reply, e.g. "250 ok\r\n") as one recvStep.
func (f *fakeStack) scriptReply(s string) { f.recvSteps = append(f.recvSteps, step{b: []byte(s)}) }

// newTestSession builds a Session directly over a fakeStack, bypassing
// Connector.Connect (and its greeting/EHLO requirements), for command-level
// and auth-level unit tests.
func newTestSession(f *fakeStack, buf []byte) *Session {
	st := &stream{stack: f, sock: new(int)}
	return &Session{stream: st, buf: buf}
}
