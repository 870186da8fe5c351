package guard

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Source is the row collection a Guard protects. *workset.Set satisfies it.
type Source interface {
	HasUnsavedChanges() bool
	DiscardAllChanges()
	Load(ctx context.Context) error
}

// Confirmer asks the user whether unsaved changes may be dropped.
type Confirmer func(ctx context.Context) bool

// AlwaysConfirm accepts every destructive action.
func AlwaysConfirm(context.Context) bool { return true }

// NeverConfirm rejects every destructive action.
func NeverConfirm(context.Context) bool { return false }

// Guard gates refresh and unload on pending changes.
type Guard struct {
	source Source
	logger *zap.Logger
}

// New returns a Guard for source. A nil logger disables logging.
func New(source Source, logger *zap.Logger) (*Guard, error) {
	if source == nil {
		return nil, fmt.Errorf("guard: source is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{source: source, logger: logger}, nil
}

// Refresh reloads the collection. With unsaved changes it asks confirm
// first; a refusal leaves everything untouched and reports false. A
// confirmed refresh discards local changes before reloading.
func (g *Guard) Refresh(ctx context.Context, confirm Confirmer) (bool, error) {
	if g.source.HasUnsavedChanges() {
		if confirm == nil || !confirm(ctx) {
			g.logger.Info("refresh cancelled, unsaved changes kept")
			return false, nil
		}
		g.source.DiscardAllChanges()
	}
	if err := g.source.Load(ctx); err != nil {
		return true, fmt.Errorf("guard: refresh: %w", err)
	}
	return true, nil
}

// BeforeUnload reports whether the host should raise its native "leave
// page" prompt.
func (g *Guard) BeforeUnload() bool {
	return g.source.HasUnsavedChanges()
}
