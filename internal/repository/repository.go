package repository

import (
	"context"
	"database/sql"
	"time"

	"smart_hatchery/internal/models"
)

type EventRepo interface {
	Append(ctx context.Context, e models.OperatorEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.OperatorEvent, error)
}

type HistoryRepo interface {
	SaveBatch(ctx context.Context, points []models.HistoryPoint) (int, error)
	Range(ctx context.Context, from, to time.Time, limit int) ([]models.HistoryPoint, error)
}

type Repository struct {
	EventRepo   EventRepo
	HistoryRepo HistoryRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo:   NewEventSQLite(db),
		HistoryRepo: NewHistorySQLite(db),
	}
}
