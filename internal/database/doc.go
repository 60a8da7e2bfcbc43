// Package database provides the PostgreSQL connection pool for price
// history storage. The live price path never touches the database; only
// the history writer and the history query endpoint use it.
package database
