// Package leaves stores the persisted leaf log: one row per message
// commitment ingested into a domain's tree, keyed by leaf index, plus
// the origin-chain block the message was dispatched in. The in-memory
// accumulator and prover are rebuilt from this log on restart.
package leaves

import (
	"fmt"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/sql"
)

// Add stores the leaf at the given index.
func Add(db sql.Executor, domain types.Domain, index uint32, leaf types.Hash32, block uint64) error {
	if _, err := db.Exec(`insert into leaves (domain, idx, leaf, block) values (?1, ?2, ?3, ?4);`,
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(domain.Uint32()))
			stmt.BindInt64(2, int64(index))
			stmt.BindBytes(3, leaf.Bytes())
			stmt.BindInt64(4, int64(block))
		}, nil); err != nil {
		return fmt.Errorf("insert leaf %d/%d: %w", domain, index, err)
	}
	return nil
}

// Get returns the leaf at the given index.
func Get(db sql.Executor, domain types.Domain, index uint32) (leaf types.Hash32, err error) {
	rows, err := db.Exec("select leaf from leaves where domain = ?1 and idx = ?2;",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(domain.Uint32()))
			stmt.BindInt64(2, int64(index))
		}, func(stmt *sql.Statement) bool {
			stmt.ColumnBytes(0, leaf[:])
			return true
		})
	if err != nil {
		return types.Hash32{}, fmt.Errorf("get leaf %d/%d: %w", domain, index, err)
	} else if rows == 0 {
		return types.Hash32{}, fmt.Errorf("%w: leaf %d/%d", sql.ErrNotFound, domain, index)
	}
	return leaf, nil
}

// InsertionBlock returns the origin block the leaf at the given index
// was dispatched in.
func InsertionBlock(db sql.Executor, domain types.Domain, index uint32) (block uint64, err error) {
	rows, err := db.Exec("select block from leaves where domain = ?1 and idx = ?2;",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(domain.Uint32()))
			stmt.BindInt64(2, int64(index))
		}, func(stmt *sql.Statement) bool {
			block = uint64(stmt.ColumnInt64(0))
			return true
		})
	if err != nil {
		return 0, fmt.Errorf("get insertion block %d/%d: %w", domain, index, err)
	} else if rows == 0 {
		return 0, fmt.Errorf("%w: leaf %d/%d", sql.ErrNotFound, domain, index)
	}
	return block, nil
}

// Count returns the number of stored leaves for the domain.
func Count(db sql.Executor, domain types.Domain) (count uint64, err error) {
	if _, err := db.Exec("select count(*) from leaves where domain = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(domain.Uint32()))
		}, func(stmt *sql.Statement) bool {
			count = uint64(stmt.ColumnInt64(0))
			return true
		}); err != nil {
		return 0, fmt.Errorf("count leaves %d: %w", domain, err)
	}
	return count, nil
}

// LastInsertionBlock returns the highest origin block any stored leaf
// was dispatched in, or 0 when the log is empty. Used to resume
// indexing after restart.
func LastInsertionBlock(db sql.Executor, domain types.Domain) (block uint64, err error) {
	if _, err := db.Exec("select coalesce(max(block), 0) from leaves where domain = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(domain.Uint32()))
		}, func(stmt *sql.Statement) bool {
			block = uint64(stmt.ColumnInt64(0))
			return true
		}); err != nil {
		return 0, fmt.Errorf("last insertion block %d: %w", domain, err)
	}
	return block, nil
}

// IterateOrdered calls fn for every stored leaf of the domain in index
// order. Iteration stops when fn returns false.
func IterateOrdered(db sql.Executor, domain types.Domain, fn func(index uint32, leaf types.Hash32) bool) error {
	if _, err := db.Exec("select idx, leaf from leaves where domain = ?1 order by idx asc;",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(domain.Uint32()))
		}, func(stmt *sql.Statement) bool {
			var leaf types.Hash32
			index := uint32(stmt.ColumnInt64(0))
			stmt.ColumnBytes(1, leaf[:])
			return fn(index, leaf)
		}); err != nil {
		return fmt.Errorf("iterate leaves %d: %w", domain, err)
	}
	return nil
}
