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

// Stream adapts a bounded Producer or Consumer into an unbounded
// io.Reader/io.Writer by chunking any buffer into pieces of at most
// capacity/2 and calling Push/Pop repeatedly, so that byte ranges much
// larger than the ring's fixed capacity can still be moved through it
// in a single call.
//
// The capacity/2 bound is what makes writes larger than the ring
// possible at all without risking deadlock: a chunk never exceeds
// half the ring, so the peer can always drain (or fill) at least a
// half-buffer's worth while this side works on the next chunk.
type Stream struct {
	push     func([]byte) error
	pop      func([]byte) error
	capacity int32
}

// NewProducerStream wraps a Producer as an io.Writer.
func NewProducerStream(p *Producer) *Stream {
	return &Stream{push: p.Push, capacity: p.capacity}
}

// NewConsumerStream wraps a Consumer as an io.Reader.
func NewConsumerStream(c *Consumer) *Stream {
	return &Stream{pop: c.Pop, capacity: c.capacity}
}

// Write implements io.Writer by chunking p into pieces of at most
// capacity/2 and Pushing each in turn. Always writes the entirety of p
// or blocks forever trying -- push/pop never time out -- so it never
// returns a short write without an error.
func (s *Stream) Write(p []byte) (int, error) {
	chunk := s.capacity / 2
	if chunk == 0 {
		chunk = 1
	}
	total := len(p)
	for len(p) > 0 {
		n := len(p)
		if int32(n) > chunk {
			n = int(chunk)
		}
		if err := s.push(p[:n]); err != nil {
			return total - len(p), err
		}
		p = p[n:]
	}
	return total, nil
}

// Read implements io.Reader by chunking p into pieces of at most
// capacity/2 and Popping each in turn, filling p completely before
// returning (unlike a typical io.Reader, which may return a short
// read -- here a short read would imply a half-drained chunk, which
// the ring's two-segment copy never produces once Pop returns nil).
func (s *Stream) Read(p []byte) (int, error) {
	chunk := s.capacity / 2
	if chunk == 0 {
		chunk = 1
	}
	total := len(p)
	for len(p) > 0 {
		n := len(p)
		if int32(n) > chunk {
			n = int(chunk)
		}
		if err := s.pop(p[:n]); err != nil {
			return total - len(p), err
		}
		p = p[n:]
	}
	return total, nil
}

// vim: foldmethod=marker
