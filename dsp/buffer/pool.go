package buffer

import (
	"sync"
	"sync/atomic"
)

// Pool recycles planes through a sync.Pool. It is safe for concurrent use.
type Pool[T Sample] struct {
	pool   sync.Pool
	gets   atomic.Int64
	allocs atomic.Int64
}

// NewPool returns an empty pool.
func NewPool[T Sample]() *Pool[T] {
	p := &Pool[T]{}
	p.pool.New = func() any {
		p.allocs.Add(1)
		return &Plane[T]{}
	}
	return p
}

// Get returns a zeroed rows x cols plane. Return it with Put.
func (p *Pool[T]) Get(rows, cols int) *Plane[T] {
	p.gets.Add(1)
	pl := p.pool.Get().(*Plane[T])
	pl.Reshape(rows, cols)
	return pl
}

// Put hands pl back. pl must not be used afterwards. Put(nil) is a no-op.
func (p *Pool[T]) Put(pl *Plane[T]) {
	if pl != nil {
		p.pool.Put(pl)
	}
}

// Stats reports how many planes were requested and how many of those
// needed a new Plane value.
func (p *Pool[T]) Stats() (gets, allocs int64) {
	return p.gets.Load(), p.allocs.Load()
}
