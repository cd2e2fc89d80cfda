package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
users:
  - id: host-1
    email: host@example.com
    name: Host
  - id: tourist-1
    email: kim@example.com
    name: Kim
  - id: tourist-2
    email: lee@example.com
    name: Lee
posts:
  - id: "7"
    user_id: host-1
    title: Jeju Island Tour
    image: https://raw.githubusercontent.com/tourbook/assets/main/jeju.png
    price: 150
    start_date: "2026-11-01"
    end_date: "2026-11-03"
    days:
      - lat: [33.4588, 33.5097]
        long: [126.9425, 126.5219]
        places:
          - title: "<b>Seongsan Ilchulbong</b>"
            category: peak
            description: Sunrise crater
          - title: Dongmun Market
            category: market
            description: Night market
      - lat: [33.2461]
        long: [126.5600, 126.4100]
        places:
          - title: Cheonjiyeon Falls
            category: waterfall
            description: Evening walk
  - id: "8"
    user_id: host-2
    title: Other host
payments:
  - id: "31"
    post_id: "7"
    user_id: tourist-1
    total_price: 300
    people: 2
    pay_state: paid
    created_at: "2026-10-10T09:00:00Z"
  - id: "32"
    post_id: "7"
    user_id: tourist-2
    total_price: 150
    people: 1
    pay_state: paid
    created_at: "2026-10-12T09:00:00Z"
    payment_intent_id: pi_123
  - id: "33"
    post_id: "8"
    user_id: tourist-1
    total_price: 99
    people: 1
    pay_state: paid
    created_at: "2026-10-12T10:00:00Z"
likes:
  - post_id: "7"
    user_id: tourist-1
`

func seededDB(t *testing.T) *DB {
	t.Helper()
	db := setupTestDB(t)
	fx := parseFixtures(t, fixtureYAML)
	_, err := db.Seed(context.Background(), fx)
	require.NoError(t, err)
	return db
}

func TestListReservations(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()

	rows, err := db.ListReservations(ctx, "host-1", "7")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// newest first
	assert.Equal(t, "32", rows[0].ID.String())
	assert.Equal(t, "31", rows[1].ID.String())

	require.NotNil(t, rows[0].Users)
	assert.Equal(t, "Lee", rows[0].Users.Name)
	require.NotNil(t, rows[0].Posts)
	assert.Equal(t, "Jeju Island Tour", rows[0].Posts.Title)
	assert.Equal(t, 150.0, rows[0].Posts.UnitPrice())
	require.NotNil(t, rows[0].Posts.StartDate)
	assert.Equal(t, "2026-11-01", *rows[0].Posts.StartDate)
	assert.Equal(t, "pi_123", rows[0].PaymentIntentID)

	t.Run("OtherHost", func(t *testing.T) {
		rows, err := db.ListReservations(ctx, "host-1", "8")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestGetPayment(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()

	p, err := db.GetPayment(ctx, "31")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.PostID)
	assert.Equal(t, "7", p.PostID.String())
	assert.Equal(t, 300.0, p.Total())
	assert.Equal(t, 2, p.People)
	require.NotNil(t, p.Users)
	assert.Equal(t, "kim@example.com", p.Users.Email)
	assert.Nil(t, p.Posts)

	missing, err := db.GetPayment(ctx, "404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetPost(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()

	p, err := db.GetPost(ctx, "8")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Nil(t, p.Image)
	assert.Nil(t, p.Price)
	assert.Nil(t, p.Start())

	missing, err := db.GetPost(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetPlaces(t *testing.T) {
	db := seededDB(t)

	days, err := db.GetPlaces(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 2, days[0].Points())
	assert.Equal(t, 1, days[1].Points())
	assert.Equal(t, "<b>Seongsan Ilchulbong</b>", days[0].Places[0].Title)
	assert.Equal(t, "waterfall", days[1].Places[0].Category)

	none, err := db.GetPlaces(context.Background(), "8")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLikes(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()

	liked, err := db.IsLiked(ctx, "7", "tourist-1")
	require.NoError(t, err)
	assert.True(t, liked)

	require.NoError(t, db.SetLiked(ctx, "7", "tourist-1", false))
	liked, err = db.IsLiked(ctx, "7", "tourist-1")
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, db.SetLiked(ctx, "7", "tourist-2", true))
	require.NoError(t, db.SetLiked(ctx, "7", "tourist-2", true))
	liked, err = db.IsLiked(ctx, "7", "tourist-2")
	require.NoError(t, err)
	assert.True(t, liked)
}
