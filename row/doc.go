// Package row defines the per-row state tracked by the editing core: an
// application record, its identity, and the status flags that drive batch
// saves. It also allocates temporary identifiers for rows that have not yet
// been committed to the server.
package row
