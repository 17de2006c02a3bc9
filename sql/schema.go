package sql

import (
	"context"
	"fmt"

	"github.com/go-llsqlite/crawshaw/sqlitex"
)

// schema is applied on open. Tables map one-to-one to the logical
// keyspaces owned by the tracker, the nonce manager and the dispatcher.
const schema = `
CREATE TABLE IF NOT EXISTS leaves
(
    domain INTEGER NOT NULL,
    idx    INTEGER NOT NULL,
    leaf   CHAR(32) NOT NULL,
    block  INTEGER NOT NULL,
    PRIMARY KEY (domain, idx)
);

CREATE TABLE IF NOT EXISTS payloads
(
    id          CHAR(32) PRIMARY KEY,
    destination INTEGER NOT NULL,
    status      INTEGER NOT NULL,
    payload     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS payloads_by_status ON payloads (destination, status);

CREATE TABLE IF NOT EXISTS transactions
(
    id          CHAR(16) PRIMARY KEY,
    destination INTEGER NOT NULL,
    signer      CHAR(20) NOT NULL,
    status      INTEGER NOT NULL,
    tx          BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS transactions_by_status ON transactions (destination, status);

CREATE TABLE IF NOT EXISTS nonce_accounts
(
    signer    CHAR(20) PRIMARY KEY,
    finalized INTEGER NOT NULL,
    upper     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS nonce_assignments
(
    signer CHAR(20) NOT NULL,
    nonce  INTEGER NOT NULL,
    tx_id  CHAR(16) NOT NULL,
    PRIMARY KEY (signer, nonce)
);
`

func applySchema(db *Database) error {
	conn := db.getConn(context.Background())
	if conn == nil {
		return ErrNoConnection
	}
	defer db.pool.Put(conn)
	if err := sqlitex.ExecScript(conn, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
