package service

import (
	"context"
	"fmt"
	"time"

	"tourbook/internal/auth"
	"tourbook/internal/domain"
	"tourbook/internal/events"

	"github.com/rs/zerolog"
)

// LikeService reads and toggles the signed-in viewer's like on a post.
type LikeService struct {
	backend  domain.Backend
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewLikeService(backend domain.Backend, eventBus domain.EventPublisher, logger *zerolog.Logger) *LikeService {
	return &LikeService{backend: backend, eventBus: eventBus, logger: logger}
}

// IsLiked is false for anonymous viewers.
func (s *LikeService) IsLiked(ctx context.Context, postID string) (bool, error) {
	if postID == "" {
		return false, fmt.Errorf("%w: post id is required", ErrInvalidInput)
	}
	viewer, ok := auth.ViewerFrom(ctx)
	if !ok {
		return false, nil
	}
	return s.backend.IsLiked(ctx, postID, viewer.UserID)
}

// Toggle flips the like and returns the new state.
func (s *LikeService) Toggle(ctx context.Context, postID string) (bool, error) {
	if postID == "" {
		return false, fmt.Errorf("%w: post id is required", ErrInvalidInput)
	}
	viewer, ok := auth.ViewerFrom(ctx)
	if !ok {
		return false, ErrUnauthenticated
	}

	liked, err := s.backend.IsLiked(ctx, postID, viewer.UserID)
	if err != nil {
		return false, err
	}
	liked = !liked
	if err := s.backend.SetLiked(ctx, postID, viewer.UserID, liked); err != nil {
		s.logger.Error().Err(err).Str("post_id", postID).Str("user_id", viewer.UserID).Msg("failed to toggle like")
		return false, err
	}

	if err := s.eventBus.PublishJSON(events.EventLikeToggled, events.LikeEventPayload{
		PostID: postID,
		UserID: viewer.UserID,
		Liked:  liked,
		At:     time.Now(),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish like event")
	}
	return liked, nil
}
