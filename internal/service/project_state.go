package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tobenna/launchpad/internal/domain"
)

// Project status moves forward only. DRAFT may launch directly when no
// bundling wallets are configured; otherwise it must pass through funding.
var projectTransitions = map[string]map[string]struct{}{
	domain.ProjectStatusDraft: {
		domain.ProjectStatusFunding:  {},
		domain.ProjectStatusLaunched: {},
	},
	domain.ProjectStatusFunding: {
		domain.ProjectStatusReady: {},
	},
	domain.ProjectStatusReady: {
		domain.ProjectStatusLaunched: {},
	},
	domain.ProjectStatusLaunched: {},
}

func normalizeStatus(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}

func canTransition(current, next string) bool {
	nextStates, ok := projectTransitions[normalizeStatus(current)]
	if !ok {
		return false
	}
	_, ok = nextStates[normalizeStatus(next)]
	return ok
}

type statusUpdater interface {
	UpdateProjectStatus(ctx context.Context, id uuid.UUID, status string) (int64, error)
}

func transitionProjectStatus(ctx context.Context, store statusUpdater, projectID uuid.UUID, current, next string) error {
	if normalizeStatus(current) == normalizeStatus(next) {
		return nil
	}
	if !canTransition(current, next) {
		return fmt.Errorf("invalid project status transition: %s -> %s", current, next)
	}
	rows, err := store.UpdateProjectStatus(ctx, projectID, next)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if rows != 1 {
		return fmt.Errorf("update project status: expected 1 row, updated %d", rows)
	}
	return nil
}
