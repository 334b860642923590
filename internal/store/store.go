// Package store holds the SQL record operations. Every function takes a
// db.DBTX so the ledger can compose several of them in one transaction.
// Lookups by ID return (nil, nil) when the record does not exist.
package store

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
