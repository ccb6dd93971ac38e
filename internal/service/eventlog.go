package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"smart_hatchery/internal/logger"
	"smart_hatchery/internal/models"
	"smart_hatchery/internal/repository"
)

// EventRecorder appends operator audit events. Recording is best effort.
type EventRecorder interface {
	Record(ctx context.Context, typ, description string, meta any)
}

type EventLogService struct {
	eventRepo repository.EventRepo
	log       *logger.Logger
}

func NewEventLogService(eventRepo repository.EventRepo, log *logger.Logger) *EventLogService {
	if log == nil {
		log = logger.Nop()
	}
	return &EventLogService{eventRepo: eventRepo, log: log}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	return from, to, normalizeEventType(f.Type), nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.OperatorEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}

// Record appends an event. Failures are logged, never returned.
func (s *EventLogService) Record(ctx context.Context, typ, description string, meta any) {
	err := s.eventRepo.Append(ctx, models.OperatorEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        normalizeEventType(typ),
		Description: description,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Warnw("event_append_failed", "type", typ, "err", err)
	}
}
