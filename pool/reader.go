// File: pool/reader.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"bufio"
	"io"
)

// DefaultReaderSize is the buffer size of pooled readers.
const DefaultReaderSize = 4096

// ReaderPool recycles bufio.Readers of a fixed size.
type ReaderPool struct {
	p *SyncPool[*bufio.Reader]
}

// NewReaderPool returns a pool of readers with size-byte buffers.
func NewReaderPool(size int) *ReaderPool {
	if size <= 0 {
		size = DefaultReaderSize
	}
	return &ReaderPool{p: NewSyncPool(
		func() *bufio.Reader { return bufio.NewReaderSize(nil, size) },
		func(br *bufio.Reader) { br.Reset(nil) },
	)}
}

// Get returns a reader positioned at the start of r.
func (rp *ReaderPool) Get(r io.Reader) *bufio.Reader {
	br := rp.p.Get()
	br.Reset(r)
	return br
}

// Put returns br to the pool. br must not be used afterwards.
func (rp *ReaderPool) Put(br *bufio.Reader) {
	rp.p.Put(br)
}
