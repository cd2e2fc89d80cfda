package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/format"
	"tourbook/internal/metrics"
	"tourbook/internal/models"

	"github.com/rs/zerolog"
)

const viewReservations = "reservations"

// ReservationService builds a host's reservation list for one post.
type ReservationService struct {
	backend domain.Backend
	images  ImagePolicy
	loc     *time.Location
	logger  *zerolog.Logger
}

func NewReservationService(backend domain.Backend, images ImagePolicy, loc *time.Location, logger *zerolog.Logger) *ReservationService {
	if loc == nil {
		loc = time.Local
	}
	return &ReservationService{backend: backend, images: images, loc: loc, logger: logger}
}

// List fetches the reservations once. An empty list is a normal outcome;
// a failed fetch returns a *ViewError carrying MsgReservationsError.
func (s *ReservationService) List(ctx context.Context, userID, postID string) (*ReservationListView, error) {
	if userID == "" || postID == "" {
		return nil, fmt.Errorf("%w: user id and post id are required", ErrInvalidInput)
	}

	rows, err := s.backend.ListReservations(ctx, userID, postID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("post_id", postID).Msg("failed to load reservations")
		metrics.IncView(viewReservations, "error")
		return nil, &ViewError{View: viewReservations, Message: MsgReservationsError, Err: err}
	}

	if len(rows) == 0 {
		metrics.IncView(viewReservations, models.ViewStatusEmpty)
		return &ReservationListView{
			Status:       models.ViewStatusEmpty,
			Message:      MsgNoReservations,
			Reservations: []ReservationRow{},
		}, nil
	}

	view := &ReservationListView{
		Status:       models.ViewStatusOK,
		Post:         summarizePost(rows[0].Posts, s.images),
		Reservations: make([]ReservationRow, 0, len(rows)),
	}
	for i := range rows {
		view.Reservations = append(view.Reservations, s.row(userID, &rows[i]))
	}
	metrics.IncView(viewReservations, models.ViewStatusOK)
	return view, nil
}

func (s *ReservationService) row(userID string, r *models.Payment) ReservationRow {
	date := r.CreatedAt
	if t, ok := localTimestamp(r.CreatedAt, s.loc); ok {
		date = format.FormatTimestamp(t)
	}

	var touristID string
	if r.Users != nil {
		touristID = r.Users.ID.String()
	}

	return ReservationRow{
		Number:   r.ID.String(),
		Nickname: userName(r.Users),
		Email:    userEmail(r.Users),
		Date:     date,
		Tourist:  r.People,
		Amount:   format.FormatPrice(r.TotalPrice),
		State:    r.PayState,
		ChatURL:  ChatURL(userID, touristID, r.Posts),
	}
}

// ChatURL links the host to a chat with the tourist about post. Query keys
// keep the order postId, postTitle, postImage.
func ChatURL(userID, touristID string, post *models.Post) string {
	var postID, title, image string
	if post != nil {
		postID = post.ID.String()
		title = post.Title
		if post.Image != nil {
			image = *post.Image
		}
	}

	var b strings.Builder
	b.WriteString("/")
	b.WriteString(url.PathEscape(userID))
	b.WriteString("/")
	b.WriteString(url.PathEscape(touristID))
	b.WriteString("/chatpage?postId=")
	b.WriteString(url.QueryEscape(postID))
	b.WriteString("&postTitle=")
	b.WriteString(url.QueryEscape(title))
	b.WriteString("&postImage=")
	b.WriteString(url.QueryEscape(image))
	return b.String()
}
