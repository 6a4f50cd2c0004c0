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
	"runtime"
	"sync/atomic"
)

// lockFreeHeader is the layout lockFreeBackend lays over the shared
// region, immediately following commonHeader:
//
//	[ commonHeader ][ size int32 ][ data... ]
//
// size sits right after the two int32 fields of commonHeader, so it
// falls on an 8-byte boundary and is safe for atomic.Int32 access.
type lockFreeHeader struct {
	common commonHeader
	size   atomic.Int32
}

const lockFreeHeaderSize = int(8 + 4) // commonHeaderSize + sizeof(atomic.Int32)

// lockFreeBackend coordinates producer and consumer with nothing but
// an atomic occupancy counter and cooperative spinning: a busy spin
// loop (`while (free_size < len);`) with a cooperative yield and
// sequentially-consistent atomics layered on top, rather than the bare
// relaxed ops a naive port would use.
type lockFreeBackend struct {
	h        *lockFreeHeader
	capacity int32
}

func (b *lockFreeBackend) headerSize() int { return lockFreeHeaderSize }

func (b *lockFreeBackend) init(mem []byte) error {
	b.bind(mem)
	b.h.size.Store(0)
	return nil
}

func (b *lockFreeBackend) attach(mem []byte) error {
	b.bind(mem)
	return nil
}

func (b *lockFreeBackend) bind(mem []byte) {
	b.h = fieldAt[lockFreeHeader](mem, 0)
	b.capacity = b.h.common.capacity
}

// waitRead busy-waits until size >= n, cooperatively yielding the
// goroutine's OS thread between observations instead of hammering the
// cache line. atomic.Int32.Load is sequentially consistent under the
// Go memory model, giving the payload read that follows proper
// acquire semantics.
func (b *lockFreeBackend) waitRead(n int32) int32 {
	for {
		if cur := b.h.size.Load(); cur >= n {
			return cur
		}
		runtime.Gosched()
	}
}

// waitWrite busy-waits until capacity-size >= n, with the same
// cooperative yield as waitRead.
func (b *lockFreeBackend) waitWrite(n int32) {
	for {
		if b.capacity-b.h.size.Load() >= n {
			return
		}
		runtime.Gosched()
	}
}

// incSize adds delta (possibly negative) to the occupancy counter.
// atomic.Int32.Add is sequentially consistent, giving the payload
// write that precedes it in Push/Pop proper release semantics.
func (b *lockFreeBackend) incSize(delta int32) {
	b.h.size.Add(delta)
}

func (b *lockFreeBackend) size() int32 {
	return b.h.size.Load()
}

func (b *lockFreeBackend) close() error { return nil }

// vim: foldmethod=marker
