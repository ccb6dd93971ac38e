package service

import (
	"context"

	"smart_hatchery/internal/models"
	"smart_hatchery/internal/repository"
)

const (
	defaultArchiveLimit = 1000
	maxArchiveLimit     = 10000
)

// HistoryArchiver keeps polled history beyond the device's short window.
type HistoryArchiver interface {
	Store(ctx context.Context, points []models.HistoryPoint) error
}

type ArchiveService struct {
	historyRepo repository.HistoryRepo
}

func NewArchiveService(historyRepo repository.HistoryRepo) *ArchiveService {
	return &ArchiveService{historyRepo: historyRepo}
}

// Store saves points; points already archived are skipped.
func (s *ArchiveService) Store(ctx context.Context, points []models.HistoryPoint) error {
	if len(points) == 0 {
		return nil
	}
	_, err := s.historyRepo.SaveBatch(ctx, points)
	return err
}

// Range returns archived points in chronological order.
func (s *ArchiveService) Range(ctx context.Context, f HistoryFilter) ([]models.HistoryPoint, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	return s.historyRepo.Range(ctx, from, to, clampLimit(f.Limit))
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultArchiveLimit
	case n > maxArchiveLimit:
		return maxArchiveLimit
	default:
		return n
	}
}
