package app

import (
	"context"
	"fmt"

	"philosophers-service/internal/domain"
)

// Capability names a permission of the host platform.
type Capability string

const (
	CapabilityView   Capability = "view"
	CapabilityManage Capability = "manage"
)

// CapabilityChecker resolves capabilities of users within a game.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, capability Capability, gameID, userID int64) (bool, error)
}

// Policy is the single place where capability and ownership checks happen.
type Policy struct {
	checker CapabilityChecker
}

func NewPolicy(checker CapabilityChecker) Policy {
	return Policy{checker: checker}
}

// Require fails with domain.ErrPermissionDenied unless the viewer holds capability.
func (p Policy) Require(ctx context.Context, capability Capability, gameID int64, viewer domain.Viewer) error {
	ok, err := p.Has(ctx, capability, gameID, viewer.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s on game %d: %w", capability, gameID, domain.ErrPermissionDenied)
	}
	return nil
}

// Has reports whether the user holds capability; manage implies view.
func (p Policy) Has(ctx context.Context, capability Capability, gameID, userID int64) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	if p.checker == nil {
		return capability == CapabilityView, nil
	}
	ok, err := p.checker.HasCapability(ctx, capability, gameID, userID)
	if err != nil || ok || capability != CapabilityView {
		return ok, err
	}
	return p.checker.HasCapability(ctx, CapabilityManage, gameID, userID)
}

// RequireSessionOwner fails unless the session belongs to the viewer and the game.
func (p Policy) RequireSessionOwner(session domain.GameSession, gameID int64, viewer domain.Viewer) error {
	if session.Game != gameID {
		return domain.ErrSessionNotFound
	}
	if session.User != viewer.UserID {
		return fmt.Errorf("game session %d: %w", session.ID, domain.ErrPermissionDenied)
	}
	return nil
}
