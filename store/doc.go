// Package store is a SQLite-backed reference implementation of the fetch
// and batch-commit collaborators used by workset. It includes:
//   - SQLiteStore: FetchAll and all-or-nothing CommitBatch over one table
//   - Schema helpers for the rows table and the change log
//   - CBOR payload encoding for application records
//   - A change log recording every committed insert, update and delete
package store
