// Package payloads stores dispatcher payload records keyed by payload
// id. The status column mirrors the status inside the encoded blob so
// the dispatcher can select work without decoding every record.
package payloads

import (
	"fmt"

	"github.com/relaymesh/go-relaymesh/codec"
	"github.com/relaymesh/go-relaymesh/common/types"
	"github.com/relaymesh/go-relaymesh/sql"
)

// Add inserts a new payload record.
func Add(db sql.Executor, payload *types.Payload) error {
	buf, err := codec.Encode(payload)
	if err != nil {
		return fmt.Errorf("encode payload %s: %w", payload.ID, err)
	}
	if _, err := db.Exec(`insert into payloads (id, destination, status, payload) values (?1, ?2, ?3, ?4);`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, payload.ID.Bytes())
			stmt.BindInt64(2, int64(payload.Destination.Uint32()))
			stmt.BindInt64(3, int64(payload.Status))
			stmt.BindBytes(4, buf)
		}, nil); err != nil {
		return fmt.Errorf("insert payload %s: %w", payload.ID, err)
	}
	return nil
}

// Update rewrites an existing payload record.
func Update(db sql.Executor, payload *types.Payload) error {
	buf, err := codec.Encode(payload)
	if err != nil {
		return fmt.Errorf("encode payload %s: %w", payload.ID, err)
	}
	rows, err := db.Exec(`update payloads set status = ?2, payload = ?3 where id = ?1 returning id;`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, payload.ID.Bytes())
			stmt.BindInt64(2, int64(payload.Status))
			stmt.BindBytes(3, buf)
		}, nil)
	if err != nil {
		return fmt.Errorf("update payload %s: %w", payload.ID, err)
	} else if rows == 0 {
		return fmt.Errorf("%w: payload %s", sql.ErrNotFound, payload.ID)
	}
	return nil
}

// Get returns the payload with the given id.
func Get(db sql.Executor, id types.PayloadID) (*types.Payload, error) {
	var payload types.Payload
	var decodeErr error
	rows, err := db.Exec("select payload from payloads where id = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
		}, func(stmt *sql.Statement) bool {
			buf := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, buf)
			decodeErr = codec.Decode(buf, &payload)
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("get payload %s: %w", id, err)
	} else if rows == 0 {
		return nil, fmt.Errorf("%w: payload %s", sql.ErrNotFound, id)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode payload %s: %w", id, decodeErr)
	}
	return &payload, nil
}

// Has returns true if a payload with the given id is stored.
func Has(db sql.Executor, id types.PayloadID) (bool, error) {
	rows, err := db.Exec("select 1 from payloads where id = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
		}, nil)
	if err != nil {
		return false, fmt.Errorf("has payload %s: %w", id, err)
	}
	return rows > 0, nil
}

// ByStatus returns all payloads of the destination in the given status,
// ordered by id for determinism.
func ByStatus(db sql.Executor, destination types.Domain, status types.PayloadStatus) ([]*types.Payload, error) {
	var result []*types.Payload
	var decodeErr error
	if _, err := db.Exec(`select payload from payloads where destination = ?1 and status = ?2 order by id asc;`,
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(destination.Uint32()))
			stmt.BindInt64(2, int64(status))
		}, func(stmt *sql.Statement) bool {
			buf := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, buf)
			var payload types.Payload
			if decodeErr = codec.Decode(buf, &payload); decodeErr != nil {
				return false
			}
			result = append(result, &payload)
			return true
		}); err != nil {
		return nil, fmt.Errorf("payloads by status %s/%s: %w", destination, status, err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode payloads %s/%s: %w", destination, status, decodeErr)
	}
	return result, nil
}
