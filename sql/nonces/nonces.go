// Package nonces stores per-signer nonce records: the two watermarks
// (finalized and upper) and the sparse nonce to transaction assignment
// map. Only the nonce manager writes to this keyspace.
package nonces

import (
	"fmt"

	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/sql"
)

// Account is the persisted watermark pair of one signer address.
// Finalized only ever increases; Upper is the next nonce never yet
// assigned.
type Account struct {
	Signer    types.Address
	Finalized uint64
	Upper     uint64
}

// GetAccount returns the watermark record for the signer.
func GetAccount(db sql.Executor, signer types.Address) (Account, error) {
	account := Account{Signer: signer}
	rows, err := db.Exec("select finalized, upper from nonce_accounts where signer = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, signer.Bytes())
		}, func(stmt *sql.Statement) bool {
			account.Finalized = uint64(stmt.ColumnInt64(0))
			account.Upper = uint64(stmt.ColumnInt64(1))
			return true
		})
	if err != nil {
		return Account{}, fmt.Errorf("get nonce account %s: %w", signer, err)
	} else if rows == 0 {
		return Account{}, fmt.Errorf("%w: nonce account %s", sql.ErrNotFound, signer)
	}
	return account, nil
}

// UpsertAccount writes the watermark record for the signer.
func UpsertAccount(db sql.Executor, account Account) error {
	if _, err := db.Exec(`insert into nonce_accounts (signer, finalized, upper) values (?1, ?2, ?3)
		on conflict(signer) do update set finalized = ?2, upper = ?3;`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, account.Signer.Bytes())
			stmt.BindInt64(2, int64(account.Finalized))
			stmt.BindInt64(3, int64(account.Upper))
		}, nil); err != nil {
		return fmt.Errorf("upsert nonce account %s: %w", account.Signer, err)
	}
	return nil
}

// Assign records that the nonce is owned by the transaction.
func Assign(db sql.Executor, signer types.Address, nonce uint64, id types.TransactionID) error {
	if _, err := db.Exec(`insert into nonce_assignments (signer, nonce, tx_id) values (?1, ?2, ?3)
		on conflict(signer, nonce) do update set tx_id = ?3;`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, signer.Bytes())
			stmt.BindInt64(2, int64(nonce))
			stmt.BindBytes(3, id.Bytes())
		}, nil); err != nil {
		return fmt.Errorf("assign nonce %s/%d: %w", signer, nonce, err)
	}
	return nil
}

// Owner returns the transaction currently tracking the nonce.
func Owner(db sql.Executor, signer types.Address, nonce uint64) (id types.TransactionID, err error) {
	rows, err := db.Exec("select tx_id from nonce_assignments where signer = ?1 and nonce = ?2;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, signer.Bytes())
			stmt.BindInt64(2, int64(nonce))
		}, func(stmt *sql.Statement) bool {
			stmt.ColumnBytes(0, id[:])
			return true
		})
	if err != nil {
		return types.EmptyTransactionID, fmt.Errorf("nonce owner %s/%d: %w", signer, nonce, err)
	} else if rows == 0 {
		return types.EmptyTransactionID, fmt.Errorf("%w: nonce %s/%d", sql.ErrNotFound, signer, nonce)
	}
	return id, nil
}

// Release removes the tracking record of the nonce.
func Release(db sql.Executor, signer types.Address, nonce uint64) error {
	if _, err := db.Exec("delete from nonce_assignments where signer = ?1 and nonce = ?2;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, signer.Bytes())
			stmt.BindInt64(2, int64(nonce))
		}, nil); err != nil {
		return fmt.Errorf("release nonce %s/%d: %w", signer, nonce, err)
	}
	return nil
}

// ClearRange removes all tracking records with from <= nonce < to.
func ClearRange(db sql.Executor, signer types.Address, from, to uint64) error {
	if _, err := db.Exec("delete from nonce_assignments where signer = ?1 and nonce >= ?2 and nonce < ?3;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, signer.Bytes())
			stmt.BindInt64(2, int64(from))
			stmt.BindInt64(3, int64(to))
		}, nil); err != nil {
		return fmt.Errorf("clear nonce range %s [%d, %d): %w", signer, from, to, err)
	}
	return nil
}

// ReleaseByTransaction removes any tracking records owned by the
// transaction.
func ReleaseByTransaction(db sql.Executor, signer types.Address, id types.TransactionID) error {
	if _, err := db.Exec("delete from nonce_assignments where signer = ?1 and tx_id = ?2;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, signer.Bytes())
			stmt.BindBytes(2, id.Bytes())
		}, nil); err != nil {
		return fmt.Errorf("release nonces of tx %s: %w", id, err)
	}
	return nil
}
