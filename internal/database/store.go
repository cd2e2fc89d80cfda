package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"tourbook/internal/models"
)

const paymentColumns = `p.id, p.post_id, p.user_id, p.total_price, p.people, p.pay_state, p.created_at, p.payment_intent_id,
        u.id, u.email, u.name, u.avatar`

const postColumns = `po.id, po.user_id, po.title, po.image, po.price, po.start_date, po.end_date`

type rowScanner interface {
	Scan(dest ...any) error
}

// ListReservations mirrors the PostgREST inner join on posts: payments of
// postID whose post belongs to hostID, newest first.
func (db *DB) ListReservations(ctx context.Context, hostID, postID string) ([]models.Payment, error) {
	query := `
        SELECT ` + paymentColumns + `, ` + postColumns + `
        FROM payments p
        JOIN posts po ON po.id = p.post_id
        LEFT JOIN users u ON u.id = p.user_id
        WHERE p.post_id = $1 AND po.user_id = $2
        ORDER BY p.created_at DESC
    `
	rows, err := db.db.QueryContext(ctx, query, postID, hostID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (db *DB) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	query := `
        SELECT ` + paymentColumns + `
        FROM payments p
        LEFT JOIN users u ON u.id = p.user_id
        WHERE p.id = $1
    `
	p, err := scanPayment(db.db.QueryRowContext(ctx, query, id), false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (db *DB) GetPost(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts po WHERE po.id = $1`
	var post models.Post
	err := scanPost(db.db.QueryRowContext(ctx, query, id), &post)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (db *DB) GetPlaces(ctx context.Context, postID string) ([]models.PlaceDay, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT lat, long, places FROM schedules WHERE post_id = $1 ORDER BY day ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("get places: %w", err)
	}
	defer rows.Close()

	var days []models.PlaceDay
	for rows.Next() {
		var lat, long, places string
		if err := rows.Scan(&lat, &long, &places); err != nil {
			return nil, fmt.Errorf("scan places: %w", err)
		}
		var day models.PlaceDay
		if err := json.Unmarshal([]byte(lat), &day.Lat); err != nil {
			return nil, fmt.Errorf("decode lat: %w", err)
		}
		if err := json.Unmarshal([]byte(long), &day.Long); err != nil {
			return nil, fmt.Errorf("decode long: %w", err)
		}
		if err := json.Unmarshal([]byte(places), &day.Places); err != nil {
			return nil, fmt.Errorf("decode places: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (db *DB) IsLiked(ctx context.Context, postID, userID string) (bool, error) {
	var n int
	err := db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("is liked: %w", err)
	}
	return n > 0, nil
}

func (db *DB) SetLiked(ctx context.Context, postID, userID string, liked bool) error {
	query := `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`
	if liked {
		query = `INSERT INTO likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	}
	if _, err := db.db.ExecContext(ctx, query, postID, userID); err != nil {
		return fmt.Errorf("set liked: %w", err)
	}
	return nil
}

func scanPayment(row rowScanner, withPost bool) (*models.Payment, error) {
	var (
		p                           models.Payment
		postID                      sql.NullString
		total                       sql.NullFloat64
		userID, email, name, avatar sql.NullString
	)
	dest := []any{
		&p.ID, &postID, &p.UserID, &total, &p.People, &p.PayState, &p.CreatedAt, &p.PaymentIntentID,
		&userID, &email, &name, &avatar,
	}
	var post models.Post
	var postRow postScan
	if withPost {
		dest = append(dest, postRow.targets(&post)...)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if postID.Valid {
		id := models.ID(postID.String)
		p.PostID = &id
	}
	if total.Valid {
		v := total.Float64
		p.TotalPrice = &v
	}
	if userID.Valid {
		p.Users = &models.User{
			ID:     models.ID(userID.String),
			Email:  email.String,
			Name:   name.String,
			Avatar: avatar.String,
		}
	}
	if withPost {
		postRow.apply(&post)
		p.Posts = &post
	}
	return &p, nil
}

func scanPost(row rowScanner, post *models.Post) error {
	var ps postScan
	if err := row.Scan(ps.targets(post)...); err != nil {
		return err
	}
	ps.apply(post)
	return nil
}

// postScan holds the nullable post columns between Scan and apply.
type postScan struct {
	userID, image, start, end sql.NullString
	price                     sql.NullFloat64
}

func (s *postScan) targets(post *models.Post) []any {
	return []any{&post.ID, &s.userID, &post.Title, &s.image, &s.price, &s.start, &s.end}
}

func (s *postScan) apply(post *models.Post) {
	if s.userID.Valid {
		id := models.ID(s.userID.String)
		post.UserID = &id
	}
	post.Image = nullString(s.image)
	post.StartDate = nullString(s.start)
	post.EndDate = nullString(s.end)
	if s.price.Valid {
		v := s.price.Float64
		post.Price = &v
	}
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
