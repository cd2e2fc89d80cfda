package models

import "time"

const (
	// DefaultMaxRangeDays is the longest selectable tour range, counted inclusively.
	DefaultMaxRangeDays = 7

	// DefaultSelectionTTL keeps an idle calendar selection alive for a day.
	DefaultSelectionTTL = 24 * time.Hour

	// RateLimitClicks is the number of calendar clicks allowed per window.
	RateLimitClicks = 30

	// RateLimitWindow is the calendar click rate-limit window.
	RateLimitWindow = time.Minute

	DefaultMapScriptURL = "https://oapi.map.naver.com/openapi/v3/maps.js"
	DefaultMapZoom      = 10

	DefaultPostImage = "/default-image.png"

	PaymentMethodCard = "Card"
)

const (
	ViewStatusOK    = "ok"
	ViewStatusEmpty = "empty"
)
