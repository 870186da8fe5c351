// Package guard protects unsaved rows from destructive navigation: a
// refresh that would reload the collection asks for confirmation first, and
// hosts can ask whether closing should be intercepted.
package guard
