package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"tourbook/internal/config"
	"tourbook/internal/domain"
	"tourbook/internal/format"
	"tourbook/internal/metrics"
	"tourbook/internal/models"

	"github.com/rs/zerolog"
)

const viewMap = "map"

// MapService builds the per-day tour map.
type MapService struct {
	backend domain.Backend
	cfg     config.MapConfig
	logger  *zerolog.Logger
}

func NewMapService(backend domain.Backend, cfg config.MapConfig, logger *zerolog.Logger) *MapService {
	if cfg.ScriptURL == "" {
		cfg.ScriptURL = models.DefaultMapScriptURL
	}
	if cfg.Zoom == 0 {
		cfg.Zoom = models.DefaultMapZoom
	}
	return &MapService{backend: backend, cfg: cfg, logger: logger}
}

// View returns the map for day (0-based). Markers cover the selected day
// only, one per index present in both coordinate lists.
func (s *MapService) View(ctx context.Context, postID string, day int) (*MapView, error) {
	if postID == "" {
		return nil, fmt.Errorf("%w: post id is required", ErrInvalidInput)
	}
	if day < 0 {
		return nil, fmt.Errorf("%w: day must not be negative", ErrInvalidInput)
	}

	days, err := s.backend.GetPlaces(ctx, postID)
	if err != nil {
		s.logger.Error().Err(err).Str("post_id", postID).Msg("failed to load places")
		metrics.IncView(viewMap, "error")
		return nil, &ViewError{View: viewMap, Message: MsgMapError, Err: err}
	}
	if len(days) == 0 {
		metrics.IncView(viewMap, models.ViewStatusEmpty)
		return &MapView{Status: models.ViewStatusEmpty, Message: MsgNoPlaces}, nil
	}
	if day >= len(days) {
		return nil, fmt.Errorf("%w: day %d out of range, post has %d days", ErrInvalidInput, day+1, len(days))
	}

	view := &MapView{
		Status:      models.ViewStatusOK,
		Heading:     MapHeading,
		ScriptURL:   s.ScriptURL(),
		Zoom:        s.cfg.Zoom,
		SelectedDay: day,
		Days:        make([]DayTab, len(days)),
	}
	if days[0].Points() > 0 {
		view.Center = &LatLng{Lat: days[0].Lat[0], Lng: days[0].Long[0]}
	}
	for i := range days {
		view.Days[i] = DayTab{Index: i, Label: "Day " + strconv.Itoa(i+1), Selected: i == day}
	}

	selected := days[day]
	view.Markers = markers(selected)
	view.Places = make([]PlaceItem, len(selected.Places))
	for i, p := range selected.Places {
		view.Places[i] = PlaceItem{
			Number:      i + 1,
			Title:       format.StripTags(p.Title),
			Category:    p.Category,
			Description: p.Description,
		}
	}

	metrics.IncView(viewMap, models.ViewStatusOK)
	return view, nil
}

// ScriptURL is the map script address carrying the client id.
func (s *MapService) ScriptURL() string {
	u, err := url.Parse(s.cfg.ScriptURL)
	if err != nil {
		return s.cfg.ScriptURL
	}
	q := u.Query()
	q.Set("ncpClientId", s.cfg.ClientID)
	u.RawQuery = q.Encode()
	return u.String()
}

func markers(d models.PlaceDay) []Marker {
	n := d.Points()
	out := make([]Marker, n)
	for i := 0; i < n; i++ {
		var title string
		if i < len(d.Places) {
			title = format.StripTags(d.Places[i].Title)
		}
		out[i] = Marker{
			Label:    strconv.Itoa(i + 1),
			Title:    title,
			Position: LatLng{Lat: d.Lat[i], Lng: d.Long[i]},
		}
	}
	return out
}
