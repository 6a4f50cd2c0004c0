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

//go:build windows

package shmqueue

import "fmt"

// blockingBackend has no Windows implementation: the process-shared
// primitive it needs (pthread_mutex_t/pthread_cond_t with
// PTHREAD_PROCESS_SHARED) has no Windows equivalent wired up here, so
// every Blocking init/attach on Windows fails.
type blockingBackend struct{}

func (b *blockingBackend) headerSize() int         { return commonHeaderSize }
func (b *blockingBackend) bind(mem []byte)         {}
func (b *blockingBackend) init(mem []byte) error   { return b.unsupported() }
func (b *blockingBackend) attach(mem []byte) error { return b.unsupported() }
func (b *blockingBackend) waitRead(n int32) int32  { return 0 }
func (b *blockingBackend) waitWrite(n int32)       {}
func (b *blockingBackend) incSize(delta int32)     {}
func (b *blockingBackend) size() int32             { return 0 }
func (b *blockingBackend) close() error            { return nil }

func (b *blockingBackend) unsupported() error {
	return fmt.Errorf("%w: blocking backend requires a POSIX process-shared pthread implementation, unavailable on windows", ErrMap)
}

// vim: foldmethod=marker
