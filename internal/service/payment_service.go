package service

import (
	"context"
	"time"

	"tourbook/internal/auth"
	"tourbook/internal/domain"
	"tourbook/internal/format"
	"tourbook/internal/metrics"
	"tourbook/internal/models"

	"github.com/rs/zerolog"
)

const viewPayment = "payment"

// PaymentService builds the receipt shown after a tour is paid.
type PaymentService struct {
	backend  domain.Backend
	resolver domain.PaymentMethodResolver
	images   ImagePolicy
	loc      *time.Location
	logger   *zerolog.Logger
}

// NewPaymentService accepts a nil resolver; the method then reads "Card".
func NewPaymentService(backend domain.Backend, resolver domain.PaymentMethodResolver, images ImagePolicy, loc *time.Location, logger *zerolog.Logger) *PaymentService {
	if loc == nil {
		loc = time.Local
	}
	return &PaymentService{backend: backend, resolver: resolver, images: images, loc: loc, logger: logger}
}

func (s *PaymentService) Receipt(ctx context.Context, paymentID string) (*PaymentReceiptView, error) {
	if paymentID == "" {
		metrics.IncView(viewPayment, models.ViewStatusEmpty)
		return emptyReceipt(), nil
	}

	payment, err := s.backend.GetPayment(ctx, paymentID)
	if err != nil {
		s.logger.Error().Err(err).Str("payment_id", paymentID).Msg("failed to load payment")
		metrics.IncView(viewPayment, "error")
		return nil, &ViewError{View: viewPayment, Message: MsgPaymentError, Err: err}
	}
	if payment == nil {
		metrics.IncView(viewPayment, models.ViewStatusEmpty)
		return emptyReceipt(), nil
	}

	var post *models.Post
	if payment.PostID != nil && *payment.PostID != "" {
		post, err = s.backend.GetPost(ctx, payment.PostID.String())
		if err != nil {
			// the receipt still renders without the post card
			s.logger.Warn().Err(err).Str("post_id", payment.PostID.String()).Msg("failed to load post for receipt")
			post = nil
		}
	}

	view := &PaymentReceiptView{
		Status:  models.ViewStatusOK,
		Heading: ReceiptHeading,
		Post:    summarizePost(post, s.images),
		Reservation: &ReservationInfo{
			Number:   payment.ID.String(),
			Nickname: userName(payment.Users),
			Email:    userEmail(payment.Users),
			Tourist:  format.NumberOfPeople(payment.Total(), post.UnitPrice()),
		},
		Payment: &PaymentInfo{
			Date:   s.paymentDate(payment.CreatedAt),
			Amount: format.FormatAmount(payment.Total()),
			Method: s.method(ctx, payment),
		},
	}
	if view.Post != nil {
		liked := s.liked(ctx, view.Post.ID)
		view.Post.Liked = &liked
	}

	metrics.IncView(viewPayment, models.ViewStatusOK)
	return view, nil
}

func emptyReceipt() *PaymentReceiptView {
	return &PaymentReceiptView{Status: models.ViewStatusEmpty, Message: MsgNoPayment}
}

func (s *PaymentService) paymentDate(raw string) string {
	t, ok := localTimestamp(raw, s.loc)
	if !ok {
		return raw
	}
	return format.FormatDate(t)
}

func (s *PaymentService) method(ctx context.Context, p *models.Payment) string {
	if s.resolver == nil || p.PaymentIntentID == "" {
		return models.PaymentMethodCard
	}
	desc, err := s.resolver.Describe(ctx, p.PaymentIntentID)
	if err != nil || desc == "" {
		s.logger.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("failed to describe payment method")
		return models.PaymentMethodCard
	}
	return desc
}

// liked is false for anonymous viewers and on lookup failure.
func (s *PaymentService) liked(ctx context.Context, postID string) bool {
	viewer, ok := auth.ViewerFrom(ctx)
	if !ok {
		return false
	}
	liked, err := s.backend.IsLiked(ctx, postID, viewer.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("post_id", postID).Msg("failed to load like state")
		return false
	}
	return liked
}
