package scheduling

import (
	"context"

	"github.com/noah-isme/scolendar-api/internal/models"
)

// Store is the occupancy persistence seen from inside a serialized transaction.
// FindByID only sees non-deleted occupancies.
type Store interface {
	Index
	FindByID(ctx context.Context, id string) (*models.Occupancy, error)
	Create(ctx context.Context, occupancy *models.Occupancy) error
	Update(ctx context.Context, occupancy *models.Occupancy) error
	SoftDelete(ctx context.Context, ids []string) error
}
