// Package workset owns the working row collection of an editable grid. It
// is the only legal way to mutate rows: adding, editing, deleting and
// duplicating rows keep the row flags consistent and forward atomic
// transactions to the rendering surface, while SaveChanges turns the pending
// flags into a single batch commit and reconciles the authoritative answer
// back into the collection.
//
// A Set is safe for concurrent use. The commit and fetch collaborators are
// called without holding the internal lock; edits made while a save is in
// flight belong to the next batch.
package workset
