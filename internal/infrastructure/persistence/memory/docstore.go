package memory

import (
	"context"
	"sync"
	"time"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
)

type write struct {
	ref   ports.Ref
	doc   ports.Document
	merge bool
}

// DocStore is an in-memory ports.DocStore suitable for tests and single
// instance development runs. Transactions serialize on one lock, so a body
// always observes a consistent committed state and its writes apply
// atomically or not at all.
type DocStore struct {
	mu   sync.Mutex
	docs map[ports.Ref]ports.Document
	now  func() time.Time
}

// NewDocStore returns an empty store.
func NewDocStore() *DocStore {
	return &DocStore{docs: make(map[ports.Ref]ports.Document), now: time.Now}
}

type memTx struct {
	store  *DocStore
	writes []write
}

// RunTransaction implements ports.DocStore. The body's error aborts the
// transaction and is returned unchanged; no writes survive an abort.
func (s *DocStore) RunTransaction(ctx context.Context, fn func(tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	now := s.now()
	for _, w := range tx.writes {
		doc := ports.ResolveServerTimestamps(w.doc, now)
		if w.merge {
			if existing, ok := s.docs[w.ref]; ok {
				merged := make(ports.Document, len(existing)+len(doc))
				for k, v := range existing {
					merged[k] = v
				}
				for k, v := range doc {
					merged[k] = v
				}
				s.docs[w.ref] = merged
				continue
			}
		}
		s.docs[w.ref] = doc
	}
	return nil
}

// Get reads committed state. Buffered writes from the same transaction are
// not visible, matching the read-then-write transaction shape of the store
// this stands in for.
func (t *memTx) Get(ref ports.Ref) (ports.Document, bool, error) {
	doc, ok := t.store.docs[ref]
	if !ok {
		return nil, false, nil
	}
	return copyDoc(doc), true, nil
}

func (t *memTx) Set(ref ports.Ref, doc ports.Document) error {
	t.writes = append(t.writes, write{ref: ref, doc: copyDoc(doc)})
	return nil
}

func (t *memTx) Merge(ref ports.Ref, doc ports.Document) error {
	t.writes = append(t.writes, write{ref: ref, doc: copyDoc(doc), merge: true})
	return nil
}

// Document returns the committed document at ref, for inspection.
func (s *DocStore) Document(ref ports.Ref) (ports.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[ref]
	if !ok {
		return nil, false
	}
	return copyDoc(doc), true
}

func copyDoc(doc ports.Document) ports.Document {
	out := make(ports.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

var _ ports.DocStore = (*DocStore)(nil)
