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

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// ringEndpoint holds the state local to one side (producer or
// consumer) of a Queue: a reference into the shared data window, the
// backend used to coordinate with the peer, and this endpoint's own
// cursor. pos is never shared and never compared against the peer's
// cursor -- the two are implicitly kept consistent via size alone.
type ringEndpoint struct {
	data     []byte
	capacity int32
	pos      int32
	b        backend
}

// copyIn splits buf across the wrap point and writes it into data
// starting at pos, without touching size or pos itself: a two-segment
// copy, one before the wrap and (if buf is longer than the room left)
// one after it.
func (e *ringEndpoint) copyIn(buf []byte) {
	n := int32(len(buf))
	first := n
	if room := e.capacity - e.pos; room < first {
		first = room
	}
	copy(e.data[e.pos:e.pos+first], buf[:first])
	if n > first {
		copy(e.data[0:n-first], buf[first:])
	}
}

// copyOut is copyIn's mirror image for reads.
func (e *ringEndpoint) copyOut(buf []byte) {
	n := int32(len(buf))
	first := n
	if room := e.capacity - e.pos; room < first {
		first = room
	}
	copy(buf[:first], e.data[e.pos:e.pos+first])
	if n > first {
		copy(buf[first:], e.data[0:n-first])
	}
}

func (e *ringEndpoint) advance(n int32) {
	e.pos = (e.pos + n) % e.capacity
}

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrPrecondition}, args...)...)
}

// Producer is the write endpoint of a Queue. Exactly one
// goroutine/process should own a given Producer for the queue's
// lifetime; it is not safe to call Push from more than one goroutine
// concurrently.
type Producer struct {
	ringEndpoint
	paused atomic.Bool
}

// Push waits for n=len(buf) bytes of free space (spinning or
// sleeping, depending on the backend) and then copies buf into the
// ring, splitting across the wrap point as needed. len(buf) == 0 is a
// no-op; len(buf) == capacity fills the ring entirely; len(buf) >
// capacity is a precondition violation -- use a Stream instead, which
// chunks arbitrarily long writes.
func (p *Producer) Push(buf []byte) error {
	n := int32(len(buf))
	if n == 0 {
		return nil
	}
	if n > p.capacity {
		return preconditionf("push of %d bytes exceeds capacity %d; use Stream.Write instead", n, p.capacity)
	}

	p.waitIfPaused()
	p.b.waitWrite(n)
	p.copyIn(buf)
	p.advance(n)
	p.b.incSize(n)
	return nil
}

// Pause prevents further Push calls in this process from proceeding
// until Resume is called. It is a local, best-effort convenience --
// not part of the wire protocol and invisible to the peer -- useful
// when a producer needs to let a consumer fully drain before resuming
// writes (e.g. ahead of a graceful shutdown handshake layered above
// this package).
func (p *Producer) Pause() { p.paused.Store(true) }

// Resume reverses Pause.
func (p *Producer) Resume() { p.paused.Store(false) }

func (p *Producer) waitIfPaused() {
	for p.paused.Load() {
		runtime.Gosched()
	}
}

// Consumer is the read endpoint of a Queue. Exactly one
// goroutine/process should own a given Consumer for the queue's
// lifetime; it is not safe to call Pop/PopAny from more than one
// goroutine concurrently.
type Consumer struct {
	ringEndpoint
}

// Pop waits for at least n=len(buf) bytes to be available and copies
// out exactly that many. len(buf) > capacity is a precondition
// violation; use a Stream for reads longer than the ring's capacity.
func (c *Consumer) Pop(buf []byte) error {
	n := int32(len(buf))
	if n == 0 {
		return nil
	}
	if n > c.capacity {
		return preconditionf("pop of %d bytes exceeds capacity %d; use Stream.Read instead", n, c.capacity)
	}

	c.b.waitRead(n)
	c.popExact(buf)
	return nil
}

// PopAny waits for at least one byte to be available, then copies out
// min(observed size, len(buf)) bytes -- an opportunistic drain that
// doesn't require the reader to already know a message length.
// Returns the number of bytes copied, which satisfies
// 1 <= got <= len(buf) for a non-empty buf; an empty buf returns 0
// immediately without waiting.
func (c *Consumer) PopAny(buf []byte) (int, error) {
	max := int32(len(buf))
	if max == 0 {
		return 0, nil
	}

	observed := c.b.waitRead(1)
	got := observed
	if got > max {
		got = max
	}
	if got > c.capacity {
		got = c.capacity
	}

	c.popExact(buf[:got])
	return int(got), nil
}

// popExact copies out len(buf) bytes, assuming the backend has
// already confirmed that many bytes are available -- shared by Pop
// (after waitRead) and PopAny (after waitRead already observed
// enough).
func (c *Consumer) popExact(buf []byte) {
	n := int32(len(buf))
	c.copyOut(buf)
	c.advance(n)
	c.b.incSize(-n)
}

// vim: foldmethod=marker
