// Package supabase reads tour data from the Supabase PostgREST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tourbook/internal/config"
	"tourbook/internal/metrics"
	"tourbook/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrBackend wraps every non-2xx answer and transport failure.
var ErrBackend = errors.New("supabase request failed")

const (
	postColumns        = "id,user_id,title,image,price,startDate,endDate"
	reservationSelect  = "*,users(id,email,name,avatar),posts!inner(" + postColumns + ")"
	paymentSelect      = "*,users(id,email,name,avatar)"
	placesSelect       = "day,lat,long,places"
	cacheKeyPrefixPost = "tourbook:post:"
	cacheKeyPrefixMap  = "tourbook:places:"
)

// Client is a thin PostgREST client. Post and place reads go through an
// optional Redis cache; reservations, payments and likes are always live.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewClient(cfg config.SupabaseConfig, logger *zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.AnonKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// UseRedisCache enables read-through caching of posts and places.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

func (c *Client) ListReservations(ctx context.Context, hostID, postID string) ([]models.Payment, error) {
	q := url.Values{}
	q.Set("select", reservationSelect)
	q.Set("post_id", "eq."+postID)
	q.Set("posts.user_id", "eq."+hostID)
	q.Set("order", "created_at.desc")

	var rows []models.Payment
	if err := c.get(ctx, "list_reservations", "payments", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	q := url.Values{}
	q.Set("select", paymentSelect)
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var rows []models.Payment
	if err := c.get(ctx, "get_payment", "payments", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*models.Post, error) {
	cacheKey := cacheKeyPrefixPost + id
	var cached models.Post
	if c.readCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	q := url.Values{}
	q.Set("select", postColumns)
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var rows []models.Post
	if err := c.get(ctx, "get_post", "posts", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	c.writeCache(ctx, cacheKey, rows[0])
	return &rows[0], nil
}

func (c *Client) GetPlaces(ctx context.Context, postID string) ([]models.PlaceDay, error) {
	cacheKey := cacheKeyPrefixMap + postID
	var cached []models.PlaceDay
	if c.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	q := url.Values{}
	q.Set("select", placesSelect)
	q.Set("post_id", "eq."+postID)
	q.Set("order", "day.asc")

	var days []models.PlaceDay
	if err := c.get(ctx, "get_places", "schedules", q, &days); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, days)
	return days, nil
}

func (c *Client) IsLiked(ctx context.Context, postID, userID string) (bool, error) {
	q := url.Values{}
	q.Set("select", "post_id")
	q.Set("post_id", "eq."+postID)
	q.Set("user_id", "eq."+userID)
	q.Set("limit", "1")

	var rows []json.RawMessage
	if err := c.get(ctx, "is_liked", "likes", q, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (c *Client) SetLiked(ctx context.Context, postID, userID string, liked bool) error {
	if liked {
		body := map[string]string{"post_id": postID, "user_id": userID}
		return c.send(ctx, "like", http.MethodPost, "likes", nil, body)
	}
	q := url.Values{}
	q.Set("post_id", "eq."+postID)
	q.Set("user_id", "eq."+userID)
	return c.send(ctx, "unlike", http.MethodDelete, "likes", q, nil)
}

// Ping checks that the REST endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	var rows []json.RawMessage
	return c.get(ctx, "ping", "posts", q, &rows)
}

func (c *Client) get(ctx context.Context, op, table string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(table, q), nil)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(op, req, out)
}

func (c *Client) send(ctx context.Context, op, method, table string, q url.Values, body any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(table, q), reader)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Prefer", "return=minimal")
	return c.do(op, req, nil)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncBackendError(op)
		return fmt.Errorf("%w: %s: %v", ErrBackend, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		metrics.IncBackendError(op)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("body", string(snippet)).
			Msg("supabase returned an error")
		return fmt.Errorf("%w: %s: http %d", ErrBackend, op, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.IncBackendError(op)
		return fmt.Errorf("%w: %s: decode: %v", ErrBackend, op, err)
	}
	return nil
}

func (c *Client) endpoint(table string, q url.Values) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}
