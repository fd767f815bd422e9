// Package memory keeps every aggregate in process. Rows are stored as JSON so
// callers never share pointers with the store, and writes made inside a
// transaction stay private until it commits.
package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"parcours/pkg/platform/sentinel"
)

const (
	tableDoctorates      = "doctorates"
	tableGroups          = "supervision_groups"
	tablePapers          = "confirmation_papers"
	tableActivities      = "training_activities"
	tableEnrollments     = "assessment_enrollments"
	tableEvaluations     = "evaluations"
	tableJuries          = "juries"
	tableAuthorizations  = "thesis_authorizations"
	tablePrivateDefenses = "private_defenses"
	tableAdmissibilities = "admissibilities"
)

// DB is the committed state shared by every transaction.
type DB struct {
	mu     sync.RWMutex
	tables map[string]map[string][]byte
}

func NewDB() *DB {
	return &DB{tables: make(map[string]map[string][]byte)}
}

func (db *DB) read(table, key string) ([]byte, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	row, ok := db.tables[table][key]
	return row, ok
}

func (db *DB) keys(table string) []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]string, 0, len(db.tables[table]))
	for k := range db.tables[table] {
		out = append(out, k)
	}
	return out
}

func (db *DB) apply(t *txn) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for table, rows := range t.writes {
		if db.tables[table] == nil {
			db.tables[table] = make(map[string][]byte)
		}
		for k, row := range rows {
			db.tables[table][k] = row
		}
	}
	for table, keys := range t.deletes {
		for k := range keys {
			delete(db.tables[table], k)
		}
	}
}

// txn overlays the writes of one transaction on top of the committed state.
type txn struct {
	db      *DB
	writes  map[string]map[string][]byte
	deletes map[string]map[string]struct{}
}

func newTxn(db *DB) *txn {
	return &txn{
		db:      db,
		writes:  make(map[string]map[string][]byte),
		deletes: make(map[string]map[string]struct{}),
	}
}

func (t *txn) read(table, key string) ([]byte, bool) {
	if row, ok := t.writes[table][key]; ok {
		return row, true
	}
	if _, ok := t.deletes[table][key]; ok {
		return nil, false
	}
	return t.db.read(table, key)
}

func (t *txn) put(table, key string, v any) error {
	row, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s row: %w", table, err)
	}
	if t.writes[table] == nil {
		t.writes[table] = make(map[string][]byte)
	}
	t.writes[table][key] = row
	delete(t.deletes[table], key)
	return nil
}

func (t *txn) remove(table, key string) error {
	if _, ok := t.read(table, key); !ok {
		return fmt.Errorf("%s %s: %w", table, key, sentinel.ErrNotFound)
	}
	delete(t.writes[table], key)
	if t.deletes[table] == nil {
		t.deletes[table] = make(map[string]struct{})
	}
	t.deletes[table][key] = struct{}{}
	return nil
}

// keys lists the visible keys of table in a stable order.
func (t *txn) keys(table string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, k := range t.db.keys(table) {
		if _, gone := t.deletes[table][k]; gone {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	for k := range t.writes[table] {
		if _, ok := seen[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func get[V any](t *txn, table, key string) (*V, error) {
	row, ok := t.read(table, key)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", table, key, sentinel.ErrNotFound)
	}
	v := new(V)
	if err := json.Unmarshal(row, v); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", table, err)
	}
	return v, nil
}

// scan decodes every row of table matching keep.
func scan[V any](t *txn, table string, keep func(*V) bool) ([]*V, error) {
	var out []*V
	for _, k := range t.keys(table) {
		v, err := get[V](t, table, k)
		if err != nil {
			return nil, err
		}
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// first returns the single row matching keep, or ErrNotFound.
func first[V any](t *txn, table string, keep func(*V) bool) (*V, error) {
	rows, err := scan(t, table, keep)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", table, sentinel.ErrNotFound)
	}
	return rows[0], nil
}
