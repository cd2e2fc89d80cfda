package service

import (
	"time"

	"tourbook/internal/format"
	"tourbook/internal/models"
)

func summarizePost(post *models.Post, images ImagePolicy) *PostSummary {
	if post == nil {
		return nil
	}
	return &PostSummary{
		ID:        post.ID.String(),
		Title:     post.Title,
		Image:     images.Resolve(post.Image),
		Dates:     format.FormatDateRange(post.Start(), post.End()),
		Price:     format.FormatPrice(post.Price),
		PriceUnit: PriceUnit,
	}
}

// localTimestamp parses a backend timestamp into loc; ok is false when raw
// is not a timestamp.
func localTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	t, ok := models.ParseTimestamp(raw)
	if !ok {
		return time.Time{}, false
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t, true
}

func userName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}

func userEmail(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}
