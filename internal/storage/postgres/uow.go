package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"parcours/internal/ports"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/outbox"
	outboxpg "parcours/pkg/platform/outbox/postgres"
	txcontext "parcours/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Sinks builds the notifier and history writing to the transaction's outbox.
type Sinks func(out outbox.Appender) (ports.Notifier, ports.History)

// UnitOfWork runs each command in one database transaction. Outbox entries
// are inserted in the same transaction.
type UnitOfWork struct {
	db      *sql.DB
	outbox  *outboxpg.Store
	sinks   Sinks
	seq     ports.ReferenceSequence
	timeout time.Duration
}

type Option func(*UnitOfWork)

func WithTimeout(d time.Duration) Option {
	return func(u *UnitOfWork) {
		u.timeout = d
	}
}

// WithSequence allocates references from seq instead of the
// doctorate_reference_seq table.
func WithSequence(seq ports.ReferenceSequence) Option {
	return func(u *UnitOfWork) {
		u.seq = seq
	}
}

func NewUnitOfWork(db *sql.DB, out *outboxpg.Store, sinks Sinks, opts ...Option) *UnitOfWork {
	u := &UnitOfWork{db: db, outbox: out, sinks: sinks, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(stores ports.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	err := txcontext.Run(ctx, u.db, func(ctx context.Context, tx *sql.Tx) error {
		c := conn{db: u.db, tx: tx}
		seq := u.seq
		if seq == nil {
			seq = &Sequence{conn: c}
		}
		notifier, history := u.sinks(u.outbox.WithTx(tx))
		return fn(ports.Stores{
			Doctorates:      doctorates{conn: c, seq: seq},
			Groups:          groups{c},
			Papers:          papers{c},
			Activities:      activities{c},
			Enrollments:     enrollments{c},
			Evaluations:     evaluations{c},
			Juries:          juries{c},
			Authorizations:  authorizations{c},
			PrivateDefenses: privateDefenses{c},
			Admissibilities: admissibilities{c},
			Notifier:        notifier,
			History:         history,
		})
	})
	switch {
	case errors.Is(err, txcontext.ErrBegin):
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	case errors.Is(err, txcontext.ErrCommit):
		return dErrors.Wrap(translate(err, "commit"), dErrors.CodeInternal, "failed to commit transaction")
	}
	return err
}

// Reader returns repositories reading outside any transaction, for queries.
func Reader(db *sql.DB) ports.DoctorateRepository {
	return doctorates{conn: conn{db: db}, seq: &Sequence{conn: conn{db: db}}}
}
