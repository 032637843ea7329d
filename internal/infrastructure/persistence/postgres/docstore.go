package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/SiameseJames22/2DWORLD/internal/application/ports"
)

const (
	serverTimeSQL  = `SELECT now()`
	getDocumentSQL = `SELECT data FROM documents WHERE collection = $1 AND key = $2`
	setDocumentSQL = `INSERT INTO documents (collection, key, data, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
ON CONFLICT (collection, key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
	mergeDocumentSQL = `INSERT INTO documents (collection, key, data, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
ON CONFLICT (collection, key) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = now()`
)

// maxTxAttempts bounds conflict retries before the conflict is surfaced.
const maxTxAttempts = 5

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// DocStore is a ports.DocStore over a documents table. Transactions run
// serializable; serialization failures and insert races are retried with
// backoff until the body reaches a definitive outcome. A conflict that
// survives all attempts is returned, never swallowed.
type DocStore struct {
	db  DB
	log zerolog.Logger
}

// NewDocStore builds the store.
func NewDocStore(db DB, log zerolog.Logger) *DocStore {
	return &DocStore{db: db, log: log}
}

// RunTransaction implements ports.DocStore.
func (s *DocStore) RunTransaction(ctx context.Context, fn func(tx ports.Tx) error) error {
	backoff := retry.WithMaxRetries(maxTxAttempts-1, retry.NewExponential(10*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.runOnce(ctx, fn)
		if isConflict(err) {
			s.log.Debug().Err(err).Msg("document transaction conflict, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *DocStore) runOnce(ctx context.Context, fn func(tx ports.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// one server clock reading per transaction, shared by every
	// ServerTimestamp in its writes
	var now time.Time
	if err := tx.QueryRow(ctx, serverTimeSQL).Scan(&now); err != nil {
		return err
	}
	if err := fn(&docTx{ctx: ctx, tx: tx, now: now}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.UniqueViolation:
		return true
	}
	return false
}

type docTx struct {
	ctx context.Context
	tx  pgx.Tx
	now time.Time
}

func (t *docTx) Get(ref ports.Ref) (ports.Document, bool, error) {
	var raw []byte
	err := t.tx.QueryRow(t.ctx, getDocumentSQL, ref.Collection, ref.Key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var doc ports.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (t *docTx) Set(ref ports.Ref, doc ports.Document) error {
	return t.write(setDocumentSQL, ref, doc)
}

func (t *docTx) Merge(ref ports.Ref, doc ports.Document) error {
	return t.write(mergeDocumentSQL, ref, doc)
}

func (t *docTx) write(sql string, ref ports.Ref, doc ports.Document) error {
	raw, err := json.Marshal(ports.ResolveServerTimestamps(doc, t.now))
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(t.ctx, sql, ref.Collection, ref.Key, raw)
	return err
}

var _ ports.DocStore = (*DocStore)(nil)
