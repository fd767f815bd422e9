package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"parcours/internal/history"
	"parcours/internal/ports"
	"parcours/internal/ports/mocks"
	"parcours/internal/storage/memory"
	"parcours/pkg/platform/outbox"
)

// Workflow wires an in-memory unit of work whose notifier is a gomock mock
// and whose history is kept in memory.
type Workflow struct {
	DB       *memory.DB
	UoW      *memory.UnitOfWork
	Notifier *mocks.MockNotifier
	History  *history.Memory
	Outbox   *outbox.MemoryStore
}

func NewWorkflow(t *testing.T) *Workflow {
	t.Helper()
	ctrl := gomock.NewController(t)
	w := &Workflow{
		DB:       memory.NewDB(),
		Notifier: mocks.NewMockNotifier(ctrl),
		History:  history.NewMemory(),
		Outbox:   outbox.NewMemoryStore(),
	}
	w.UoW = memory.NewUnitOfWork(w.DB, memory.NewSequence(), w.Outbox,
		func(outbox.Appender) (ports.Notifier, ports.History) {
			return w.Notifier, w.History
		})
	return w
}

// Seed runs fn in its own transaction and fails the test on error.
func (w *Workflow) Seed(t *testing.T, fn func(ctx context.Context, stores ports.Stores) error) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, w.UoW.RunInTx(ctx, func(stores ports.Stores) error {
		return fn(ctx, stores)
	}))
}

// Read runs fn in a transaction whose writes are discarded.
func (w *Workflow) Read(t *testing.T, fn func(ctx context.Context, stores ports.Stores)) {
	t.Helper()
	ctx := context.Background()
	_ = w.UoW.RunInTx(ctx, func(stores ports.Stores) error {
		fn(ctx, stores)
		return errReadOnly
	})
}

var errReadOnly = errors.New("read only")
