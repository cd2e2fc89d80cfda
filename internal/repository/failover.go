package repository

import (
	"context"
	"sync"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStateRepository serves from primary until it fails, then from
// fallback, probing primary again once per recoveryInterval.
type FailoverStateRepository struct {
	primary  domain.StateRepository
	fallback domain.StateRepository
	logger   *zerolog.Logger

	mu        sync.Mutex
	down      bool
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// IsDegraded reports whether calls currently go to the fallback.
func (r *FailoverStateRepository) IsDegraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.down
}

// usePrimary decides whether the next call should try the primary store.
func (r *FailoverStateRepository) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.down {
		return true
	}
	if r.now().Sub(r.lastCheck) > recoveryInterval {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverStateRepository) report(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		if r.down {
			r.logger.Info().Str("op", op).Msg("Primary state repository recovered")
		}
		r.down = false
		return
	}
	if !r.down {
		r.logger.Error().Err(err).Str("op", op).Msg("Primary state repository failed, falling back to memory")
	}
	r.down = true
	r.lastCheck = r.now()
}

func (r *FailoverStateRepository) GetSelection(ctx context.Context, sessionID string) (*models.SelectionState, error) {
	if r.usePrimary() {
		state, err := r.primary.GetSelection(ctx, sessionID)
		r.report("get", err)
		if err == nil {
			return state, nil
		}
	}
	return r.fallback.GetSelection(ctx, sessionID)
}

func (r *FailoverStateRepository) SetSelection(ctx context.Context, state *models.SelectionState) error {
	if r.usePrimary() {
		err := r.primary.SetSelection(ctx, state)
		r.report("set", err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.SetSelection(ctx, state)
}

func (r *FailoverStateRepository) ClearSelection(ctx context.Context, sessionID string) error {
	if r.usePrimary() {
		err := r.primary.ClearSelection(ctx, sessionID)
		r.report("clear", err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.ClearSelection(ctx, sessionID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, sessionID string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, sessionID, limit, window)
		r.report("rate_limit", err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, sessionID, limit, window)
}
