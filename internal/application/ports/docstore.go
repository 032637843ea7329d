package ports

import (
	"context"
	"time"
)

// Ref addresses a document by collection and key.
type Ref struct {
	Collection string
	Key        string
}

// Document is a JSON-shaped document body.
type Document map[string]any

type serverTimestamp struct{}

// ServerTimestamp is a sentinel value. Placed in a Document, the store
// replaces it with its own clock at commit time.
var ServerTimestamp = serverTimestamp{}

// ResolveServerTimestamps returns a copy of doc with every ServerTimestamp
// sentinel replaced by now. Store adapters call this at write time.
func ResolveServerTimestamps(doc Document, now time.Time) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = now.UTC()
			continue
		}
		out[k] = v
	}
	return out
}

// Tx is the handle passed to a transaction body. Reads observe committed
// state; writes take effect atomically when the body returns nil.
type Tx interface {
	// Get reads a document. ok is false when it does not exist.
	Get(ref Ref) (doc Document, ok bool, err error)
	// Set writes the full document.
	Set(ref Ref, doc Document) error
	// Merge upserts, combining doc with any existing fields.
	Merge(ref Ref, doc Document) error
}

// DocStore is the external transactional document store. RunTransaction
// executes fn atomically; the store retries internally on conflicts until
// the body resolves to a definitive outcome, and returns the body's error
// unchanged when it gives up the transaction on purpose.
type DocStore interface {
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}
