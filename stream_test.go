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

package shmqueue_test

import (
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"pault.ag/go/shmqueue"
)

// TestStreamRoundTripLargerThanCapacity checks that a write much
// larger than the ring's capacity still completes, chunked
// transparently by Stream, as long as a concurrent reader is draining
// it.
func TestStreamRoundTripLargerThanCapacity(t *testing.T) {
	for _, kind := range backends() {
		t.Run(kind.String(), func(t *testing.T) {
			q := newQueue(t, 16, kind)

			out := shmqueue.NewProducerStream(q.Producer())
			in := shmqueue.NewConsumerStream(q.Consumer())

			payload := make([]byte, 200)
			for i := range payload {
				payload[i] = byte(i)
			}

			writeErr := make(chan error, 1)
			go func() {
				_, err := out.Write(payload)
				writeErr <- err
			}()

			got := make([]byte, len(payload))
			_, err := io.ReadFull(in, got)
			require.NoError(t, err)
			require.NoError(t, <-writeErr)
			require.Equal(t, payload, got)
		})
	}
}

// TestStreamIdentityVaryingSizes checks the write(b, n); read(r, n)
// round-trip identity property across sizes below, at, and well above
// the ring's capacity.
func TestStreamIdentityVaryingSizes(t *testing.T) {
	q := newQueue(t, 64, shmqueue.LockFree)

	out := shmqueue.NewProducerStream(q.Producer())
	in := shmqueue.NewConsumerStream(q.Consumer())

	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 2, 31, 63, 64, 65, 200, 1000} {
		payload := make([]byte, n)
		rng.Read(payload)

		writeErr := make(chan error, 1)
		go func() {
			_, err := out.Write(payload)
			writeErr <- err
		}()

		got := make([]byte, n)
		_, err := io.ReadFull(in, got)
		require.NoError(t, err)
		require.NoError(t, <-writeErr)
		require.Equal(t, payload, got, "size %d", n)
	}
}

// TestStreamWriteNeverShort checks that Write either reports the full
// length written or an error -- it never returns a short count
// silently, unlike a typical io.Writer.
func TestStreamWriteNeverShort(t *testing.T) {
	q := newQueue(t, 32, shmqueue.LockFree)
	out := shmqueue.NewProducerStream(q.Producer())
	in := shmqueue.NewConsumerStream(q.Consumer())

	payload := make([]byte, 100)
	rand.New(rand.NewSource(2)).Read(payload)

	writeDone := make(chan struct {
		n   int
		err error
	}, 1)
	go func() {
		n, err := out.Write(payload)
		writeDone <- struct {
			n   int
			err error
		}{n, err}
	}()

	got := make([]byte, len(payload))
	_, err := io.ReadFull(in, got)
	require.NoError(t, err)

	result := <-writeDone
	require.NoError(t, result.err)
	require.Equal(t, len(payload), result.n)
	require.Equal(t, payload, got)
}

// vim: foldmethod=marker
