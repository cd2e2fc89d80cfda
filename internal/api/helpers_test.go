package api

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"tourbook/internal/calendar"
	"tourbook/internal/config"
	"tourbook/internal/events"
	"tourbook/internal/models"
	"tourbook/internal/repository"
	"tourbook/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "super-secret-jwt-token-with-at-least-32-characters"

// fakeBackend serves fixed rows; err, when set, fails every read.
type fakeBackend struct {
	mu       sync.Mutex
	err      error
	payments []models.Payment
	posts    map[string]*models.Post
	places   map[string][]models.PlaceDay
	likes    map[string]bool
}

func newFakeBackend() *fakeBackend {
	price := 1500.0
	total := 3000.0
	image := "https://raw.githubusercontent.com/tourbook/assets/main/jeju.png"
	start, end := "2026-11-01", "2026-11-03"
	host := models.ID("host-1")
	postID := models.ID("7")

	post := &models.Post{ID: postID, UserID: &host, Title: "Jeju Island Tour", Image: &image, Price: &price, StartDate: &start, EndDate: &end}
	return &fakeBackend{
		payments: []models.Payment{{
			ID:         "31",
			PostID:     &postID,
			UserID:     "tourist-1",
			TotalPrice: &total,
			People:     2,
			PayState:   "paid",
			CreatedAt:  "2026-10-17T06:30:05Z",
			Users:      &models.User{ID: "tourist-1", Email: "kim@example.com", Name: "Kim"},
			Posts:      post,
		}},
		posts: map[string]*models.Post{"7": post},
		places: map[string][]models.PlaceDay{"7": {
			{Lat: []float64{33.4588, 33.5097}, Long: []float64{126.9425, 126.5219}, Places: []models.Place{
				{Title: "<b>Seongsan</b> Ilchulbong", Category: "peak"},
				{Title: "Dongmun Market", Category: "market"},
			}},
			{Lat: []float64{33.2461}, Long: []float64{126.56}, Places: []models.Place{{Title: "Cheonjiyeon Falls"}}},
		}},
		likes: map[string]bool{},
	}
}

func (b *fakeBackend) ListReservations(_ context.Context, hostID, postID string) ([]models.Payment, error) {
	if b.err != nil {
		return nil, b.err
	}
	out := []models.Payment{}
	for _, p := range b.payments {
		if p.PostID != nil && p.PostID.String() == postID && p.Posts != nil && p.Posts.UserID != nil && p.Posts.UserID.String() == hostID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (b *fakeBackend) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	if b.err != nil {
		return nil, b.err
	}
	for i := range b.payments {
		if b.payments[i].ID.String() == id {
			p := b.payments[i]
			p.Posts = nil
			return &p, nil
		}
	}
	return nil, nil
}

func (b *fakeBackend) GetPost(_ context.Context, id string) (*models.Post, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.posts[id], nil
}

func (b *fakeBackend) GetPlaces(_ context.Context, postID string) ([]models.PlaceDay, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.places[postID], nil
}

func (b *fakeBackend) IsLiked(_ context.Context, postID, userID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.likes[postID+"/"+userID], nil
}

func (b *fakeBackend) SetLiked(_ context.Context, postID, userID string, liked bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.likes[postID+"/"+userID] = liked
	return nil
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func testClock() time.Time {
	return time.Date(2026, time.October, 17, 10, 0, 0, 0, time.UTC)
}

func newTestServices(backend *fakeBackend) Services {
	logger := testLogger()
	images := service.NewImagePolicy(config.ImagesConfig{AllowedHosts: []string{"raw.githubusercontent.com"}})
	calCfg := config.CalendarConfig{MaxRangeDays: 7, RateLimitClicks: 100, RateLimitWindow: time.Minute}
	bus := events.NewEventBus()
	repo := repository.NewMemoryStateRepository(time.Hour)

	return Services{
		Reservations: service.NewReservationService(backend, images, time.UTC, logger),
		Payments:     service.NewPaymentService(backend, nil, images, time.UTC, logger),
		Maps:         service.NewMapService(backend, config.MapConfig{ClientID: "abc123"}, logger),
		Selection:    service.NewSelectionService(repo, bus, calendar.NewPicker(7, testClock), calCfg, logger),
		Likes:        service.NewLikeService(backend, bus, logger),
	}
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		HTTP: config.APIHTTPConfig{Enabled: true},
		Auth: config.APIAuthConfig{HeaderAPIKey: "x-api-key", HeaderExtra: "x-api-extra"},
	}
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": subject + "@example.com",
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}
