// Package history persists accepted price updates to PostgreSQL and serves
// range queries over them. The writer consumes the store's update journal,
// batches rows, and flushes on size or interval. History is optional: when
// no database is configured the engine runs without this package.
package history
