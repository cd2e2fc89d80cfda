package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Fixtures is the YAML shape accepted by Seed.
type Fixtures struct {
	Users []struct {
		ID     string `yaml:"id"`
		Email  string `yaml:"email"`
		Name   string `yaml:"name"`
		Avatar string `yaml:"avatar"`
	} `yaml:"users"`
	Posts []struct {
		ID        string   `yaml:"id"`
		UserID    string   `yaml:"user_id"`
		Title     string   `yaml:"title"`
		Image     *string  `yaml:"image"`
		Price     *float64 `yaml:"price"`
		StartDate *string  `yaml:"start_date"`
		EndDate   *string  `yaml:"end_date"`
		Days      []struct {
			Lat    []float64 `yaml:"lat"`
			Long   []float64 `yaml:"long"`
			Places []struct {
				Title       string `yaml:"title" json:"title"`
				Category    string `yaml:"category" json:"category"`
				Description string `yaml:"description" json:"description"`
			} `yaml:"places"`
		} `yaml:"days"`
	} `yaml:"posts"`
	Payments []struct {
		ID              string   `yaml:"id"`
		PostID          string   `yaml:"post_id"`
		UserID          string   `yaml:"user_id"`
		TotalPrice      *float64 `yaml:"total_price"`
		People          int      `yaml:"people"`
		PayState        string   `yaml:"pay_state"`
		CreatedAt       string   `yaml:"created_at"`
		PaymentIntentID string   `yaml:"payment_intent_id"`
	} `yaml:"payments"`
	Likes []struct {
		PostID string `yaml:"post_id"`
		UserID string `yaml:"user_id"`
	} `yaml:"likes"`
}

func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return &fx, nil
}

// SeedStats counts the rows written by Seed.
type SeedStats struct {
	Users, Posts, Days, Payments, Likes int
}

// Seed upserts fixtures in one transaction. Running it twice leaves the same
// rows behind; a post's schedule is replaced as a whole.
func (db *DB) Seed(ctx context.Context, fx *Fixtures) (SeedStats, error) {
	var stats SeedStats
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range fx.Users {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO users (id, email, name, avatar) VALUES ($1, $2, $3, $4)
            ON CONFLICT (id) DO UPDATE SET email = excluded.email, name = excluded.name, avatar = excluded.avatar`,
			u.ID, u.Email, u.Name, u.Avatar)
		if err != nil {
			return stats, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		stats.Users++
	}

	for _, p := range fx.Posts {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO posts (id, user_id, title, image, price, start_date, end_date)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (id) DO UPDATE SET user_id = excluded.user_id, title = excluded.title,
                image = excluded.image, price = excluded.price,
                start_date = excluded.start_date, end_date = excluded.end_date`,
			p.ID, nullable(p.UserID), p.Title, p.Image, p.Price, p.StartDate, p.EndDate)
		if err != nil {
			return stats, fmt.Errorf("seed post %s: %w", p.ID, err)
		}
		stats.Posts++

		if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE post_id = $1`, p.ID); err != nil {
			return stats, fmt.Errorf("reset schedule of post %s: %w", p.ID, err)
		}
		for i, d := range p.Days {
			lat, long, places, err := encodeDay(d.Lat, d.Long, d.Places)
			if err != nil {
				return stats, fmt.Errorf("encode day %d of post %s: %w", i+1, p.ID, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO schedules (post_id, day, lat, long, places) VALUES ($1, $2, $3, $4, $5)`,
				p.ID, i+1, lat, long, places)
			if err != nil {
				return stats, fmt.Errorf("seed day %d of post %s: %w", i+1, p.ID, err)
			}
			stats.Days++
		}
	}

	for _, p := range fx.Payments {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO payments (id, post_id, user_id, total_price, people, pay_state, created_at, payment_intent_id)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            ON CONFLICT (id) DO UPDATE SET post_id = excluded.post_id, user_id = excluded.user_id,
                total_price = excluded.total_price, people = excluded.people, pay_state = excluded.pay_state,
                created_at = excluded.created_at, payment_intent_id = excluded.payment_intent_id`,
			p.ID, nullable(p.PostID), p.UserID, p.TotalPrice, p.People, p.PayState, p.CreatedAt, p.PaymentIntentID)
		if err != nil {
			return stats, fmt.Errorf("seed payment %s: %w", p.ID, err)
		}
		stats.Payments++
	}

	for _, l := range fx.Likes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, l.PostID, l.UserID)
		if err != nil {
			return stats, fmt.Errorf("seed like %s/%s: %w", l.PostID, l.UserID, err)
		}
		stats.Likes++
	}

	if err := tx.Commit(); err != nil {
		return stats, err
	}
	db.logger.Info().
		Int("users", stats.Users).
		Int("posts", stats.Posts).
		Int("days", stats.Days).
		Int("payments", stats.Payments).
		Int("likes", stats.Likes).
		Msg("Fixtures seeded")
	return stats, nil
}

func encodeDay(lat, long []float64, places any) (string, string, string, error) {
	if lat == nil {
		lat = []float64{}
	}
	if long == nil {
		long = []float64{}
	}
	l, err := json.Marshal(lat)
	if err != nil {
		return "", "", "", err
	}
	g, err := json.Marshal(long)
	if err != nil {
		return "", "", "", err
	}
	p, err := json.Marshal(places)
	if err != nil {
		return "", "", "", err
	}
	if string(p) == "null" {
		p = []byte("[]")
	}
	return string(l), string(g), string(p), nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
