// Package tracker derives aggregate change state from row metadata: the
// unsaved-changes flag, per-class counts for UI badges and the pending batch
// snapshot handed to the commit collaborator.
package tracker
