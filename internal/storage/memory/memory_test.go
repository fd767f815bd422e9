package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	doctorate "parcours/internal/doctorate/models"
	"parcours/internal/history"
	"parcours/internal/ports"
	training "parcours/internal/training/models"
	id "parcours/pkg/domain"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/outbox"
	"parcours/pkg/platform/sentinel"
	"parcours/pkg/requestcontext"
)

type MemorySuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	db     *DB
	outbox *outbox.MemoryStore
	uow    *UnitOfWork
}

func TestMemorySuite(t *testing.T) {
	suite.Run(t, new(MemorySuite))
}

func (s *MemorySuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.db = NewDB()
	s.outbox = outbox.NewMemoryStore()
	s.uow = NewUnitOfWork(s.db, NewSequence(), s.outbox, func(out outbox.Appender) (ports.Notifier, ports.History) {
		return nil, history.NewOutbox(out)
	})
}

func (s *MemorySuite) newDoctorate() *doctorate.Doctorate {
	d, err := doctorate.NewDoctorate(id.NewDoctorateID(), "ADM-1",
		doctorate.Student{Matricule: "S1", FirstName: "Ada", LastName: "Lovelace"},
		doctorate.Training{Acronym: "SC3DP", CDD: "cdsc", Year: 2025}, s.now)
	s.Require().NoError(err)
	return d
}

func (s *MemorySuite) save(d *doctorate.Doctorate) {
	err := s.uow.RunInTx(s.ctx, func(st ports.Stores) error {
		return st.Doctorates.Save(s.ctx, d)
	})
	s.Require().NoError(err)
}

func (s *MemorySuite) TestReferenceAssignedOnFirstSave() {
	first, second := s.newDoctorate(), s.newDoctorate()
	s.save(first)
	s.save(second)
	s.save(first)

	s.Require().NoError(s.uow.RunInTx(s.ctx, func(st ports.Stores) error {
		a, err := st.Doctorates.Get(s.ctx, first.ID)
		s.Require().NoError(err)
		b, err := st.Doctorates.Get(s.ctx, second.ID)
		s.Require().NoError(err)
		s.Equal("M-CDSC25-0000001", a.Reference)
		s.Equal("M-CDSC25-0000002", b.Reference)
		return nil
	}))
}

func (s *MemorySuite) TestFailedTransactionLeavesNothingBehind() {
	d := s.newDoctorate()
	boom := errors.New("boom")
	err := s.uow.RunInTx(s.ctx, func(st ports.Stores) error {
		s.Require().NoError(st.Doctorates.Save(s.ctx, d))
		s.Require().NoError(ports.Record(s.ctx, st.History, d.ID, "S1", s.now, "created", true, "parcours-doctoral", "creation"))
		_, err := st.Doctorates.Get(s.ctx, d.ID)
		s.Require().NoError(err, "writes are visible inside the transaction")
		return boom
	})
	s.ErrorIs(err, boom)
	s.Empty(s.outbox.All())

	err = s.uow.RunInTx(s.ctx, func(st ports.Stores) error {
		_, err := st.Doctorates.Get(s.ctx, d.ID)
		return err
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

type failingAppender struct{}

func (failingAppender) Append(context.Context, ...outbox.Entry) error {
	return errors.New("outbox full")
}

func (s *MemorySuite) TestOutboxFailureDiscardsWrites() {
	uow := NewUnitOfWork(s.db, NewSequence(), failingAppender{}, func(out outbox.Appender) (ports.Notifier, ports.History) {
		return nil, history.NewOutbox(out)
	})
	d := s.newDoctorate()
	err := uow.RunInTx(s.ctx, func(st ports.Stores) error {
		if err := st.Doctorates.Save(s.ctx, d); err != nil {
			return err
		}
		return ports.Record(s.ctx, st.History, d.ID, "S1", s.now, "created", true, "parcours-doctoral", "creation")
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	err = s.uow.RunInTx(s.ctx, func(st ports.Stores) error {
		_, err := st.Doctorates.Get(s.ctx, d.ID)
		return err
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemorySuite) TestCommittedHistoryReachesOutbox() {
	d := s.newDoctorate()
	err := s.uow.RunInTx(s.ctx, func(st ports.Stores) error {
		if err := st.Doctorates.Save(s.ctx, d); err != nil {
			return err
		}
		return ports.Record(s.ctx, st.History, d.ID, "S1", s.now, "created", true, "parcours-doctoral", "creation")
	})
	s.Require().NoError(err)
	entries := s.outbox.All()
	s.Require().Len(entries, 1)
	s.Equal(outbox.TopicHistory, entries[0].Topic)
}

func (s *MemorySuite) TestReadsAreCopies() {
	d := s.newDoctorate()
	s.save(d)
	d.ProposedThesisTitle = "changed outside"

	s.Require().NoError(s.uow.RunInTx(s.ctx, func(st ports.Stores) error {
		got, err := st.Doctorates.Get(s.ctx, d.ID)
		s.Require().NoError(err)
		s.Empty(got.ProposedThesisTitle)
		return nil
	}))
}

func (s *MemorySuite) TestListAppliesFilter() {
	a, b := s.newDoctorate(), s.newDoctorate()
	b.Training.CDD = "CDE"
	s.save(a)
	s.save(b)

	s.Require().NoError(s.uow.RunInTx(s.ctx, func(st ports.Stores) error {
		all, err := st.Doctorates.List(s.ctx, doctorate.ListFilter{})
		s.Require().NoError(err)
		s.Len(all, 2)
		cde, err := st.Doctorates.List(s.ctx, doctorate.ListFilter{CDDs: []string{"CDE"}})
		s.Require().NoError(err)
		s.Require().Len(cde, 1)
		s.Equal(b.ID, cde[0].ID)
		return nil
	}))
}

func (s *MemorySuite) TestActivityTree() {
	doctorateID := id.NewDoctorateID()
	parent, err := training.NewActivity(id.NewActivityID(), doctorateID, training.ContextDoctoralTraining, training.CategorySeminar, nil, s.now)
	s.Require().NoError(err)
	child, err := training.NewActivity(id.NewActivityID(), doctorateID, training.ContextDoctoralTraining, training.CategoryCommunication, parent, s.now.Add(time.Minute))
	s.Require().NoError(err)

	s.Require().NoError(s.uow.RunInTx(s.ctx, func(st ports.Stores) error {
		s.Require().NoError(st.Activities.Save(s.ctx, parent))
		return st.Activities.Save(s.ctx, child)
	}))

	s.Require().NoError(s.uow.RunInTx(s.ctx, func(st ports.Stores) error {
		children, err := st.Activities.ListChildren(s.ctx, parent.ID)
		s.Require().NoError(err)
		s.Require().Len(children, 1)
		s.Equal(child.ID, children[0].ID)

		s.Require().NoError(st.Activities.Delete(s.ctx, child.ID))
		all, err := st.Activities.ListByDoctorate(s.ctx, doctorateID)
		s.Require().NoError(err)
		s.Len(all, 1)
		s.ErrorIs(st.Activities.Delete(s.ctx, child.ID), sentinel.ErrNotFound)
		return nil
	}))
}

func (s *MemorySuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	err := s.uow.RunInTx(ctx, func(ports.Stores) error { return nil })
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *MemorySuite) TestSameShardSerializes() {
	ctx := requestcontext.WithShard(s.ctx, "doctorate-1")
	var (
		mu      sync.Mutex
		active  int
		overlap bool
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.uow.RunInTx(ctx, func(ports.Stores) error {
				mu.Lock()
				active++
				if active > 1 {
					overlap = true
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	s.False(overlap)
}

func (s *MemorySuite) TestDirectoryManagers() {
	dir := NewDirectory()
	dir.AddManager(ports.ManagerCDD, "CDSC", ports.Person{Matricule: "G1"})
	dir.AddManager(ports.ManagerCDD, "", ports.Person{Matricule: "G0"})
	dir.AddManager(ports.ManagerCDD, "CDE", ports.Person{Matricule: "G2"})

	got, err := dir.Managers(s.ctx, ports.ManagerCDD, "CDSC")
	s.Require().NoError(err)
	s.Len(got, 2)

	_, err = dir.Person(s.ctx, "UNKNOWN")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
