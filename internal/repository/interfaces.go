package repository

import (
	"context"
	"time"

	"github.com/orsched/or-dashboard/internal/model"
)

// CaseRepository is the single table this system owns.
type CaseRepository interface {
	Create(ctx context.Context, c *model.SurgeryCase) error
	CreateBatch(ctx context.Context, cases []*model.SurgeryCase) error
	Get(ctx context.Context, id int64) (*model.SurgeryCase, error)
	Update(ctx context.Context, c *model.SurgeryCase) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)

	List(ctx context.Context) ([]*model.SurgeryCase, error)
	ListByDate(ctx context.Context, date time.Time) ([]*model.SurgeryCase, error)

	// ListCompleted returns rows with a non-null actual duration, the raw
	// input to the training pipeline.
	ListCompleted(ctx context.Context) ([]*model.SurgeryCase, error)

	// ListAnalyticsRows returns the aggregation projection, optionally
	// bounded to [from, to) and optionally restricted to completed cases.
	ListAnalyticsRows(ctx context.Context, from, to *time.Time, completedOnly bool) ([]model.AnalyticsRow, error)

	// AvgDurationForService returns nil when the service has no completed
	// history.
	AvgDurationForService(ctx context.Context, service string) (*float64, error)

	ListMissingDoctor(ctx context.Context) ([]*model.SurgeryCase, error)
	UpdateDoctor(ctx context.Context, id int64, doctor string) error
}
