package identity

import (
	"sync"

	"github.com/mirrordoc/mirrordoc/internal/ulid"
)

// Resolver hands out transient node identities. An identity is assigned by
// whichever side creates the node (parser-driven build or editor-driven
// change-set replay) and stays attached to the node until it is destroyed.
//
// Identities are stable within a session only. The reconciliation layer never
// diffs them directly; it works with positional pseudo-ids instead.
type Resolver struct {
	cache *sync.Map
}

func NewResolver() *Resolver {
	return &Resolver{cache: &sync.Map{}}
}

// GetNodeID returns the identity for obj, generating one on first use.
func (r *Resolver) GetNodeID(obj any) string {
	if v, ok := r.cache.Load(obj); ok {
		return v.(string)
	}

	id := ulid.GenerateID()
	r.cache.Store(obj, id)

	return id
}

// Adopt binds an explicit identity to obj, e.g. one read back from a
// persisted snapshot. Returns false when the id is not a valid ULID.
func (r *Resolver) Adopt(obj any, id string) bool {
	if !ulid.ValidID(id) {
		return false
	}
	r.cache.Store(obj, id)
	return true
}

// Forget drops the binding for a destroyed node.
func (r *Resolver) Forget(obj any) {
	r.cache.Delete(obj)
}
