package service

import (
	"context"
	"fmt"
	"time"

	"tourbook/internal/calendar"
	"tourbook/internal/config"
	"tourbook/internal/domain"
	"tourbook/internal/events"
	"tourbook/internal/format"
	"tourbook/internal/metrics"

	"github.com/rs/zerolog"
)

// SelectionService keeps one calendar range selection per browser session.
// Click and Reset on the same session are serialized within the process;
// instances sharing a Redis store expect a session to stick to one instance.
type SelectionService struct {
	repo        domain.StateRepository
	locks       *sessionLocks
	eventBus    domain.EventPublisher
	picker      calendar.Picker
	clickLimit  int
	clickWindow time.Duration
	logger      *zerolog.Logger
}

func NewSelectionService(repo domain.StateRepository, eventBus domain.EventPublisher, picker calendar.Picker, cfg config.CalendarConfig, logger *zerolog.Logger) *SelectionService {
	return &SelectionService{
		repo:        repo,
		locks:       newSessionLocks(),
		eventBus:    eventBus,
		picker:      picker,
		clickLimit:  cfg.RateLimitClicks,
		clickWindow: cfg.RateLimitWindow,
		logger:      logger,
	}
}

func (s *SelectionService) Picker() calendar.Picker { return s.picker }

// Get loads the session's selection. A stored state that no longer parses
// is treated as empty.
func (s *SelectionService) Get(ctx context.Context, sessionID string) (calendar.Selection, error) {
	if sessionID == "" {
		return calendar.Empty(), fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	state, err := s.repo.GetSelection(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to get selection")
		return calendar.Empty(), err
	}
	sel, err := calendar.FromState(state)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("discarding unreadable selection")
		return calendar.Empty(), nil
	}
	return sel, nil
}

// Click applies a day click and stores the new selection. The returned
// view shows the month of the clicked day.
func (s *SelectionService) Click(ctx context.Context, sessionID string, day calendar.Date) (*SelectionView, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	if day.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if s.clickLimit > 0 {
		allowed, err := s.repo.CheckRateLimit(ctx, sessionID, s.clickLimit, s.clickWindow)
		if err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("rate limit check failed")
		} else if !allowed {
			return nil, ErrRateLimited
		}
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	sel, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	outcome := s.picker.Click(sel, day)
	metrics.IncSelection(outcome.Kind.String())

	switch outcome.Kind {
	case calendar.OutcomeStarted, calendar.OutcomeCommitted, calendar.OutcomeRestarted:
		state := outcome.Selection.State(sessionID)
		state.UpdatedAt = time.Now()
		if err := s.repo.SetSelection(ctx, &state); err != nil {
			s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to save selection")
			return nil, err
		}
	}
	s.publish(sessionID, day, outcome)

	view := s.view(sessionID, outcome.Selection, day)
	view.Outcome = outcome.Kind.String()
	view.Warning = outcome.Warning
	return view, nil
}

// Reset drops the session's selection.
func (s *SelectionService) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	unlock := s.locks.lock(sessionID)
	err := s.repo.ClearSelection(ctx, sessionID)
	unlock()
	if err != nil {
		return err
	}
	if err := s.eventBus.PublishJSON(events.EventSelectionCleared, events.SelectionEventPayload{
		SessionID: sessionID,
		Phase:     calendar.PhaseEmpty.String(),
		At:        time.Now(),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish selection event")
	}
	return nil
}

// Month renders the grid around pivot with the session's selection. The
// selection itself is not touched.
func (s *SelectionService) Month(ctx context.Context, sessionID string, pivot calendar.Date) (*SelectionView, error) {
	sel, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if pivot.IsZero() {
		pivot = s.picker.Today()
	}
	return s.view(sessionID, sel, pivot), nil
}

func (s *SelectionService) view(sessionID string, sel calendar.Selection, pivot calendar.Date) *SelectionView {
	st := sel.State(sessionID)
	month := s.picker.BuildMonth(pivot, sel)
	view := &SelectionView{
		SessionID: sessionID,
		Phase:     st.Phase,
		Start:     st.Start,
		End:       st.End,
		Days:      sel.Days(),
		Month:     &month,
	}
	if start, ok := sel.Start(); ok {
		a := start.In(time.UTC)
		var b *time.Time
		if end, ok := sel.End(); ok {
			t := end.In(time.UTC)
			b = &t
		}
		view.Summary = format.FormatDateRange(&a, b)
	}
	return view
}

var outcomeEvents = map[calendar.OutcomeKind]string{
	calendar.OutcomeStarted:   events.EventSelectionStarted,
	calendar.OutcomeCommitted: events.EventRangeCommitted,
	calendar.OutcomeRejected:  events.EventRangeRejected,
	calendar.OutcomeRestarted: events.EventSelectionRestarted,
}

func (s *SelectionService) publish(sessionID string, clicked calendar.Date, outcome calendar.Outcome) {
	eventType, ok := outcomeEvents[outcome.Kind]
	if !ok {
		return
	}
	st := outcome.Selection.State(sessionID)
	payload := events.SelectionEventPayload{
		SessionID: sessionID,
		Clicked:   clicked.String(),
		Phase:     st.Phase,
		Start:     st.Start,
		End:       st.End,
		Days:      outcome.Selection.Days(),
		Warning:   outcome.Warning,
		At:        time.Now(),
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish selection event")
	}
}
