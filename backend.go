// {{{ Copyright (c) Paul R. Tagliamonte <paultag@gmail.com> 2020-2021
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package shmqueue

// backend is the language-neutral abstraction over the two
// synchronization disciplines a Queue can use: init, waitRead,
// waitWrite, incSize. Selected dynamically at Create/Attach time,
// trading one indirect call per op for not duplicating the ring
// engine per backend.
type backend interface {
	// headerSize returns the total size, in bytes, of this backend's
	// portion of the shared region header (including the common
	// prefix), so the caller can place the ring data right after it.
	headerSize() int

	// init initializes backend-specific header state. Called exactly
	// once, by Create, immediately after the file is truncated and
	// mapped.
	init(mem []byte) error

	// attach binds the backend to an already-initialized header,
	// without touching its contents. Called by Attach/AttachFD.
	attach(mem []byte) error

	// waitRead blocks (spins or sleeps, depending on the backend)
	// until at least n bytes are available to pop, and returns the
	// observed size.
	waitRead(n int32) int32

	// waitWrite blocks until at least n bytes of free space are
	// available to push.
	waitWrite(n int32)

	// incSize adjusts the occupancy counter by delta, which may be
	// negative, and wakes any waiter that might now be unblocked.
	incSize(delta int32)

	// size returns the current occupancy without blocking. Exposed via
	// Queue.Size for diagnostics (cmd/shmqueuectl inspect).
	size() int32

	// close releases any backend-specific resources (e.g. destroying
	// a pthread mutex/condvar). Safe to call even if init/attach was
	// never called successfully.
	close() error
}

// newBackend constructs the zero-value backend implementation for the
// given kind. Its header isn't populated yet; call init or attach
// before any waitRead/waitWrite/incSize.
func newBackend(kind BackendKind) backend {
	switch kind {
	case Blocking:
		return &blockingBackend{}
	default:
		return &lockFreeBackend{}
	}
}

// vim: foldmethod=marker
