package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tourbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jejuPost() *models.Post {
	return &models.Post{
		ID:        "7",
		UserID:    idPtr("host-1"),
		Title:     "Jeju Island Tour",
		Image:     strPtr("https://raw.githubusercontent.com/tourbook/assets/main/jeju.png"),
		Price:     floatPtr(1500),
		StartDate: strPtr("2026-11-01"),
		EndDate:   strPtr("2026-11-03"),
	}
}

func TestReservationService_List(t *testing.T) {
	ctx := context.Background()
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		backend := new(mockBackend)
		svc := NewReservationService(backend, testImages(), seoul, testLogger())

		backend.On("ListReservations", ctx, "host-1", "7").Return([]models.Payment{
			{
				ID:         "31",
				PostID:     idPtr("7"),
				UserID:     "tourist-1",
				TotalPrice: floatPtr(3000),
				People:     2,
				PayState:   "paid",
				CreatedAt:  "2026-10-17T06:30:05Z",
				Users:      &models.User{ID: "tourist-1", Email: "kim@example.com", Name: "Kim"},
				Posts:      jejuPost(),
			},
		}, nil)

		view, err := svc.List(ctx, "host-1", "7")
		require.NoError(t, err)
		assert.Equal(t, models.ViewStatusOK, view.Status)

		require.NotNil(t, view.Post)
		assert.Equal(t, "Jeju Island Tour", view.Post.Title)
		assert.Equal(t, "Nov 1 - Nov 3, 2026", view.Post.Dates)
		assert.Equal(t, "$1,500", view.Post.Price)
		assert.Equal(t, "/Person", view.Post.PriceUnit)
		assert.Nil(t, view.Post.Liked)

		require.Len(t, view.Reservations, 1)
		row := view.Reservations[0]
		assert.Equal(t, "31", row.Number)
		assert.Equal(t, "Kim", row.Nickname)
		assert.Equal(t, "kim@example.com", row.Email)
		assert.Equal(t, "10/17/2026, 3:30:05 PM", row.Date)
		assert.Equal(t, 2, row.Tourist)
		assert.Equal(t, "$3,000", row.Amount)
		assert.Equal(t, "paid", row.State)
		assert.Equal(t,
			"/host-1/tourist-1/chatpage?postId=7&postTitle=Jeju+Island+Tour&postImage=https%3A%2F%2Fraw.githubusercontent.com%2Ftourbook%2Fassets%2Fmain%2Fjeju.png",
			row.ChatURL)
		backend.AssertExpectations(t)
	})

	t.Run("Empty", func(t *testing.T) {
		backend := new(mockBackend)
		svc := NewReservationService(backend, testImages(), seoul, testLogger())
		backend.On("ListReservations", ctx, "host-1", "9").Return([]models.Payment{}, nil)

		view, err := svc.List(ctx, "host-1", "9")
		require.NoError(t, err)
		assert.Equal(t, models.ViewStatusEmpty, view.Status)
		assert.Equal(t, MsgNoReservations, view.Message)
		assert.Empty(t, view.Reservations)
		assert.Nil(t, view.Post)
	})

	t.Run("BackendError", func(t *testing.T) {
		backend := new(mockBackend)
		svc := NewReservationService(backend, testImages(), seoul, testLogger())
		backend.On("ListReservations", ctx, "host-1", "7").Return(nil, errors.New("timeout"))

		view, err := svc.List(ctx, "host-1", "7")
		assert.Nil(t, view)
		var ve *ViewError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, MsgReservationsError, ve.Message)
	})

	t.Run("MissingIDs", func(t *testing.T) {
		backend := new(mockBackend)
		svc := NewReservationService(backend, testImages(), seoul, testLogger())

		_, err := svc.List(ctx, "", "7")
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = svc.List(ctx, "host-1", "")
		assert.ErrorIs(t, err, ErrInvalidInput)
		backend.AssertNotCalled(t, "ListReservations")
	})

	t.Run("FallbacksForMissingData", func(t *testing.T) {
		backend := new(mockBackend)
		svc := NewReservationService(backend, testImages(), seoul, testLogger())
		backend.On("ListReservations", ctx, "host-1", "7").Return([]models.Payment{
			{ID: "40", CreatedAt: "not a date", Posts: &models.Post{ID: "7", Title: "Bare"}},
		}, nil)

		view, err := svc.List(ctx, "host-1", "7")
		require.NoError(t, err)
		assert.Equal(t, models.DefaultPostImage, view.Post.Image)
		assert.Equal(t, "Dates to be announced", view.Post.Dates)
		assert.Equal(t, "N/A", view.Post.Price)
		assert.Equal(t, "not a date", view.Reservations[0].Date)
		assert.Equal(t, "N/A", view.Reservations[0].Amount)
		assert.Equal(t, "/host-1//chatpage?postId=7&postTitle=Bare&postImage=", view.Reservations[0].ChatURL)
	})
}

func TestImagePolicy(t *testing.T) {
	p := testImages()
	tests := []struct {
		raw  *string
		want string
	}{
		{nil, models.DefaultPostImage},
		{strPtr(""), models.DefaultPostImage},
		{strPtr("https://raw.githubusercontent.com/a.png"), "https://raw.githubusercontent.com/a.png"},
		{strPtr("https://netvvmmkvqmzzmsgzjgx.supabase.co/storage/v1/object/public/x.jpg"), "https://netvvmmkvqmzzmsgzjgx.supabase.co/storage/v1/object/public/x.jpg"},
		{strPtr("http://raw.githubusercontent.com/a.png"), models.DefaultPostImage},
		{strPtr("https://evil.example.com/a.png"), models.DefaultPostImage},
		{strPtr("//evil.example.com/a.png"), models.DefaultPostImage},
		{strPtr("/icons/local.svg"), "/icons/local.svg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Resolve(tt.raw))
	}
}
