package memory

import (
	"context"
	"sync"
	"time"

	"parcours/internal/ports"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/outbox"
	"parcours/pkg/requestcontext"
)

// numShards bounds the lock table. Commands on the same doctorate hash to
// the same shard and run one at a time.
const numShards = 128

const defaultTxTimeout = 5 * time.Second

// Sinks builds the notifier and history bound to a transaction's outbox.
type Sinks func(out outbox.Appender) (ports.Notifier, ports.History)

// UnitOfWork runs commands against a DB. Writes, notifications and history
// entries are buffered and only become visible when fn succeeds.
type UnitOfWork struct {
	shards  [numShards]sync.Mutex
	db      *DB
	seq     ports.ReferenceSequence
	outbox  outbox.Appender
	sinks   Sinks
	timeout time.Duration
}

type Option func(*UnitOfWork)

// WithTimeout bounds transactions started without a deadline.
func WithTimeout(d time.Duration) Option {
	return func(u *UnitOfWork) {
		u.timeout = d
	}
}

func NewUnitOfWork(db *DB, seq ports.ReferenceSequence, out outbox.Appender, sinks Sinks, opts ...Option) *UnitOfWork {
	u := &UnitOfWork{db: db, seq: seq, outbox: out, sinks: sinks, timeout: defaultTxTimeout}
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

	shard := selectShard(requestcontext.Shard(ctx))
	u.shards[shard].Lock()
	defer u.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	t := newTxn(u.db)
	buf := &outbox.Buffer{}
	notifier, history := u.sinks(buf)
	stores := ports.Stores{
		Doctorates:      doctorates{tx: t, seq: u.seq},
		Groups:          groups{tx: t},
		Papers:          papers{tx: t},
		Activities:      activities{tx: t},
		Enrollments:     enrollments{tx: t},
		Evaluations:     evaluations{tx: t},
		Juries:          juries{tx: t},
		Authorizations:  authorizations{tx: t},
		PrivateDefenses: privateDefenses{tx: t},
		Admissibilities: admissibilities{tx: t},
		Notifier:        notifier,
		History:         history,
	}
	if err := fn(stores); err != nil {
		return err
	}
	// apply cannot fail, so the outbox goes first.
	if err := buf.Flush(ctx, u.outbox); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to queue outbox entries")
	}
	u.db.apply(t)
	return nil
}

// selectShard hashes key with FNV-1a. Commands without a key share shard 0.
func selectShard(key string) int {
	if key == "" {
		return 0
	}
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= fnvPrime
	}
	return int(h % numShards)
}
