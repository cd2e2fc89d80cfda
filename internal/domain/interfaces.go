package domain

import (
	"context"
	"time"

	"tourbook/internal/models"
)

// Backend is the data source behind every view: the Supabase REST API in
// production, the local SQL store in development.
type Backend interface {
	// ListReservations returns payments for postID joined with the tourist
	// and the post, restricted to posts owned by hostID.
	ListReservations(ctx context.Context, hostID, postID string) ([]models.Payment, error)
	// GetPayment returns nil, nil when no payment has that id.
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	// GetPost returns nil, nil when no post has that id.
	GetPost(ctx context.Context, id string) (*models.Post, error)
	GetPlaces(ctx context.Context, postID string) ([]models.PlaceDay, error)
	IsLiked(ctx context.Context, postID, userID string) (bool, error)
	SetLiked(ctx context.Context, postID, userID string, liked bool) error
}

type StateRepository interface {
	GetSelection(ctx context.Context, sessionID string) (*models.SelectionState, error)
	SetSelection(ctx context.Context, state *models.SelectionState) error
	ClearSelection(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, sessionID string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// PaymentMethodResolver describes how a payment was made, e.g. "Visa •••• 4242".
type PaymentMethodResolver interface {
	Describe(ctx context.Context, paymentIntentID string) (string, error)
}
