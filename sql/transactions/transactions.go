// Package transactions stores dispatcher transaction records keyed by
// transaction uuid.
package transactions

import (
	"fmt"

	"github.com/relaymesh/go-relaymesh/codec"
	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/sql"
)

// Add inserts a new transaction record.
func Add(db sql.Executor, tx *types.Transaction) error {
	buf, err := codec.Encode(tx)
	if err != nil {
		return fmt.Errorf("encode tx %s: %w", tx.ID, err)
	}
	if _, err := db.Exec(`insert into transactions (id, destination, signer, status, tx) values (?1, ?2, ?3, ?4, ?5);`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, tx.ID.Bytes())
			stmt.BindInt64(2, int64(tx.Destination.Uint32()))
			stmt.BindBytes(3, tx.Signer.Bytes())
			stmt.BindInt64(4, int64(tx.Status))
			stmt.BindBytes(5, buf)
		}, nil); err != nil {
		return fmt.Errorf("insert tx %s: %w", tx.ID, err)
	}
	return nil
}

// Update rewrites an existing transaction record.
func Update(db sql.Executor, tx *types.Transaction) error {
	buf, err := codec.Encode(tx)
	if err != nil {
		return fmt.Errorf("encode tx %s: %w", tx.ID, err)
	}
	rows, err := db.Exec(`update transactions set status = ?2, tx = ?3 where id = ?1 returning id;`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, tx.ID.Bytes())
			stmt.BindInt64(2, int64(tx.Status))
			stmt.BindBytes(3, buf)
		}, nil)
	if err != nil {
		return fmt.Errorf("update tx %s: %w", tx.ID, err)
	} else if rows == 0 {
		return fmt.Errorf("%w: tx %s", sql.ErrNotFound, tx.ID)
	}
	return nil
}

// Get returns the transaction with the given id.
func Get(db sql.Executor, id types.TransactionID) (*types.Transaction, error) {
	var tx types.Transaction
	var decodeErr error
	rows, err := db.Exec("select tx from transactions where id = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
		}, func(stmt *sql.Statement) bool {
			buf := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, buf)
			decodeErr = codec.Decode(buf, &tx)
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("get tx %s: %w", id, err)
	} else if rows == 0 {
		return nil, fmt.Errorf("%w: tx %s", sql.ErrNotFound, id)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode tx %s: %w", id, decodeErr)
	}
	return &tx, nil
}

// Status returns only the status of the transaction with the given id.
func Status(db sql.Executor, id types.TransactionID) (status types.TransactionStatus, err error) {
	rows, err := db.Exec("select status from transactions where id = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
		}, func(stmt *sql.Statement) bool {
			status = types.TransactionStatus(stmt.ColumnInt64(0))
			return true
		})
	if err != nil {
		return 0, fmt.Errorf("tx status %s: %w", id, err)
	} else if rows == 0 {
		return 0, fmt.Errorf("%w: tx %s", sql.ErrNotFound, id)
	}
	return status, nil
}

// Live returns all non-terminal transactions of the destination,
// ordered by id for determinism. Used to resume polling after restart.
func Live(db sql.Executor, destination types.Domain) ([]*types.Transaction, error) {
	var result []*types.Transaction
	var decodeErr error
	if _, err := db.Exec(`select tx from transactions where destination = ?1 and status not in (?2, ?3) order by id asc;`,
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(destination.Uint32()))
			stmt.BindInt64(2, int64(types.TxFinalized))
			stmt.BindInt64(3, int64(types.TxDropped))
		}, func(stmt *sql.Statement) bool {
			buf := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, buf)
			var tx types.Transaction
			if decodeErr = codec.Decode(buf, &tx); decodeErr != nil {
				return false
			}
			result = append(result, &tx)
			return true
		}); err != nil {
		return nil, fmt.Errorf("live txs %s: %w", destination, err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode live txs %s: %w", destination, decodeErr)
	}
	return result, nil
}
