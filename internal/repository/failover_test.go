package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"tourbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetSelection(ctx context.Context, sessionID string) (*models.SelectionState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SelectionState), args.Error(1)
}

func (m *mockRepo) SetSelection(ctx context.Context, state *models.SelectionState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockRepo) ClearSelection(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, sessionID string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, sessionID, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverStateRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	clock := &fakeClock{t: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)}
	repo := NewFailoverStateRepository(primary, fallback, &logger)
	repo.now = clock.Now
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		state := &models.SelectionState{SessionID: "s1"}
		primary.On("GetSelection", ctx, "s1").Return(state, nil).Once()

		got, err := repo.GetSelection(ctx, "s1")
		assert.NoError(t, err)
		assert.Equal(t, state, got)
		assert.False(t, repo.IsDegraded())
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		state := &models.SelectionState{SessionID: "s2"}
		primary.On("GetSelection", ctx, "s2").Return(nil, errors.New("fail")).Once()
		fallback.On("GetSelection", ctx, "s2").Return(state, nil).Once()

		got, err := repo.GetSelection(ctx, "s2")
		assert.NoError(t, err)
		assert.Equal(t, state, got)
		assert.True(t, repo.IsDegraded())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("StaysOnFallbackWithinInterval", func(t *testing.T) {
		state := &models.SelectionState{SessionID: "s3"}
		fallback.On("SetSelection", ctx, state).Return(nil).Once()
		fallback.On("ClearSelection", ctx, "s3").Return(nil).Once()
		fallback.On("CheckRateLimit", ctx, "s3", 10, time.Minute).Return(true, nil).Once()

		assert.NoError(t, repo.SetSelection(ctx, state))
		assert.NoError(t, repo.ClearSelection(ctx, "s3"))
		allowed, err := repo.CheckRateLimit(ctx, "s3", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		fallback.AssertExpectations(t)
		primary.AssertNotCalled(t, "SetSelection", ctx, state)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		primary.On("GetSelection", ctx, "s4").Return(nil, errors.New("still down")).Once()
		fallback.On("GetSelection", ctx, "s4").Return(nil, nil).Once()

		got, err := repo.GetSelection(ctx, "s4")
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.True(t, repo.IsDegraded())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("Recovery", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		state := &models.SelectionState{SessionID: "s5"}
		primary.On("GetSelection", ctx, "s5").Return(state, nil).Once()

		got, err := repo.GetSelection(ctx, "s5")
		assert.NoError(t, err)
		assert.Equal(t, state, got)
		assert.False(t, repo.IsDegraded())
		primary.AssertExpectations(t)
	})

	t.Run("SetSelectionFailover", func(t *testing.T) {
		state := &models.SelectionState{SessionID: "s6"}
		primary.On("SetSelection", ctx, state).Return(errors.New("fail")).Once()
		fallback.On("SetSelection", ctx, state).Return(nil).Once()

		assert.NoError(t, repo.SetSelection(ctx, state))
		assert.True(t, repo.IsDegraded())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("CheckRateLimitFailover", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		primary.On("CheckRateLimit", ctx, "s7", 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, "s7", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "s7", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
