package state

import (
	"sync"

	"github.com/meridianchain/meridian/foundation/blockchain/block"
)

// pool maintains the set of transaction references waiting to be mined into
// a block. References keep their arrival order; picking honors the maximum
// block size from the genesis file.
type pool struct {
	mu       sync.RWMutex
	refs     map[string]block.TxRef
	order    []string
	maxBytes int
}

func newPool(maxBytes int) *pool {
	return &pool{
		refs:     make(map[string]block.TxRef),
		maxBytes: maxBytes,
	}
}

// upsert adds a reference, replacing any existing reference with the same id
// without losing its queue position.
func (p *pool) upsert(tx block.TxRef) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.refs[tx.ID]; !exists {
		p.order = append(p.order, tx.ID)
	}
	p.refs[tx.ID] = tx
}

// pick returns references in arrival order up to the block byte budget.
func (p *pool) pick() []block.TxRef {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var picked []block.TxRef
	bytes := 0
	for _, id := range p.order {
		tx := p.refs[id]
		size := len(tx.ID) + len(tx.DataRef)
		if bytes+size > p.maxBytes && len(picked) > 0 {
			break
		}
		picked = append(picked, tx)
		bytes += size
	}

	return picked
}

// delete removes a mined reference from the pool.
func (p *pool) delete(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.refs[id]; !exists {
		return
	}

	delete(p.refs, id)
	for i, oid := range p.order {
		if oid == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// count returns the number of waiting references.
func (p *pool) count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.refs)
}
