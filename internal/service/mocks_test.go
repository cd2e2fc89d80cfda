package service

import (
	"context"
	"io"
	"time"

	"tourbook/internal/config"
	"tourbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListReservations(ctx context.Context, hostID, postID string) ([]models.Payment, error) {
	args := m.Called(ctx, hostID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *mockBackend) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockBackend) GetPost(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *mockBackend) GetPlaces(ctx context.Context, postID string) ([]models.PlaceDay, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlaceDay), args.Error(1)
}

func (m *mockBackend) IsLiked(ctx context.Context, postID, userID string) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockBackend) SetLiked(ctx context.Context, postID, userID string, liked bool) error {
	return m.Called(ctx, postID, userID, liked).Error(0)
}

type mockStateRepo struct {
	mock.Mock
}

func (m *mockStateRepo) GetSelection(ctx context.Context, sessionID string) (*models.SelectionState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SelectionState), args.Error(1)
}

func (m *mockStateRepo) SetSelection(ctx context.Context, state *models.SelectionState) error {
	return m.Called(ctx, state).Error(0)
}

func (m *mockStateRepo) ClearSelection(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockStateRepo) CheckRateLimit(ctx context.Context, sessionID string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, sessionID, limit, window)
	return args.Bool(0), args.Error(1)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Describe(ctx context.Context, paymentIntentID string) (string, error) {
	args := m.Called(ctx, paymentIntentID)
	return args.String(0), args.Error(1)
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func testImages() ImagePolicy {
	return NewImagePolicy(config.ImagesConfig{
		AllowedHosts: []string{"raw.githubusercontent.com", "netvvmmkvqmzzmsgzjgx.supabase.co"},
		Fallback:     models.DefaultPostImage,
	})
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func idPtr(s string) *models.ID {
	id := models.ID(s)
	return &id
}
