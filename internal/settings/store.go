// Package settings is the settings service shared by the UI and the render
// thread. It is backed by an in-memory MVCC database; every mutation bumps a
// store-wide epoch by exactly one.
package settings

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"
	"github.com/raoulx24/framesync/internal/epoch"
	"github.com/raoulx24/framesync/internal/logging"
)

const (
	tableIndex    = "index"
	tableSections = "sections"
)

// Store is the settings store.
type Store struct {
	schema *memdb.DBSchema
	db     *memdb.MemDB

	log logging.Logger
}

// New returns a store seeded with the given sections at epoch 0.
func New(seed Values, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Null()
	}

	dbSchema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableIndex:    indexTableSchema(),
			tableSections: sectionsTableSchema(),
		},
	}

	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, fmt.Errorf("settings: creating db: %w", err)
	}

	s := &Store{schema: dbSchema, db: db, log: log}

	tx := db.Txn(true)
	defer tx.Abort()

	for name, v := range seed.sections() {
		if err := tx.Insert(tableSections, &section{Name: name, Value: v}); err != nil {
			return nil, fmt.Errorf("settings: seeding %s: %w", name, err)
		}
	}
	tx.Commit()

	return s, nil
}

// Epoch returns the current store epoch.
func (s *Store) Epoch() uint64 {
	tx := s.db.Txn(false)
	defer tx.Abort()

	return maxIndex(tx, tableSections)
}

// WaitForChange blocks until the epoch moves past since or ctx is done, and
// returns the current epoch.
func (s *Store) WaitForChange(ctx context.Context, since uint64) (uint64, error) {
	for {
		tx := s.db.Txn(false)
		watch, raw, err := tx.FirstWatch(tableIndex, "id", tableSections)
		tx.Abort()
		if err != nil {
			return 0, fmt.Errorf("settings: watching epoch: %w", err)
		}

		var idx uint64
		if e, ok := raw.(*indexEntry); ok {
			idx = e.Index
		}
		if idx > since {
			return idx, nil
		}

		select {
		case <-ctx.Done():
			return idx, ctx.Err()
		case <-watch:
		}
	}
}

// Apply replaces every section in one mutation.
func (s *Store) Apply(v Values) (uint64, error) {
	tx := s.db.Txn(true)
	defer tx.Abort()

	idx := epoch.Next(maxIndex(tx, tableSections))
	for name, val := range v.sections() {
		if err := tx.Insert(tableSections, &section{Name: name, Value: val, Index: idx}); err != nil {
			return 0, fmt.Errorf("settings: inserting %s: %w", name, err)
		}
	}
	if err := updateIndex(tx, tableSections, idx); err != nil {
		return 0, fmt.Errorf("settings: updating index: %w", err)
	}

	tx.Commit()
	return idx, nil
}

// Values returns every section as of one epoch.
func (s *Store) Values() (Values, uint64, error) {
	tx := s.db.Txn(false)
	defer tx.Abort()

	var (
		v   Values
		err error
	)
	if v.Rendering, err = lookup[Rendering](tx, SectionRendering); err != nil {
		return Values{}, 0, err
	}
	if v.Lighting, err = lookup[Lighting](tx, SectionLighting); err != nil {
		return Values{}, 0, err
	}
	if v.Grid, err = lookup[Grid](tx, SectionGrid); err != nil {
		return Values{}, 0, err
	}
	if v.PostProcess, err = lookup[PostProcess](tx, SectionPostProcess); err != nil {
		return Values{}, 0, err
	}
	return v, maxIndex(tx, tableSections), nil
}

// section is a stored settings record. Value holds a settings struct by
// value and is never mutated once inserted.
type section struct {
	Name  string
	Value any
	Index uint64
}

func sectionsTableSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: tableSections,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {
				Name:         "id",
				AllowMissing: false,
				Unique:       true,
				Indexer:      &memdb.StringFieldIndex{Field: "Name"},
			},
		},
	}
}

// indexEntry keeps a record of the last epoch per-table.
type indexEntry struct {
	Table string
	Index uint64
}

func indexTableSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: tableIndex,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {
				Name:         "id",
				AllowMissing: false,
				Unique:       true,
				Indexer: &memdb.StringFieldIndex{
					Field:     "Table",
					Lowercase: true,
				},
			},
		},
	}
}

func updateIndex(tx *memdb.Txn, tbl string, idx uint64) error {
	return tx.Insert(tableIndex, &indexEntry{Table: tbl, Index: idx})
}

func maxIndex(tx *memdb.Txn, tables ...string) uint64 {
	var max uint64

	for _, table := range tables {
		ti, err := tx.First(tableIndex, "id", table)
		if err != nil {
			continue
		}

		if idx, ok := ti.(*indexEntry); ok && idx.Index > max {
			max = idx.Index
		}
	}
	return max
}

func lookup[T any](tx *memdb.Txn, name string) (T, error) {
	var zero T

	raw, err := tx.First(tableSections, "id", name)
	if err != nil {
		return zero, fmt.Errorf("settings: %s lookup failed: %w", name, err)
	}
	if raw == nil {
		return zero, nil
	}

	v, ok := raw.(*section).Value.(T)
	if !ok {
		return zero, fmt.Errorf("settings: %s holds %T", name, raw.(*section).Value)
	}
	return v, nil
}
