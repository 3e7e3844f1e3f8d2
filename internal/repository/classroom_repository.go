package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scolendar-api/internal/models"
)

const classroomColumns = `id, name, capacity, created_at, updated_at`

// ClassroomRepository manages persistence for classrooms.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs a ClassroomRepository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// List returns classrooms matching filters along with total count.
func (r *ClassroomRepository) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error) {
	base := "FROM classrooms WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	size, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", classroomColumns, base, size, offset)
	classrooms := make([]models.Classroom, 0)
	if err := r.db.SelectContext(ctx, &classrooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classrooms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count classrooms: %w", err)
	}
	return classrooms, total, nil
}

// FindByID fetches a classroom by ID.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	const query = `SELECT ` + classroomColumns + ` FROM classrooms WHERE id = $1`
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, id); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// ExistsByName checks if another classroom uses the same name.
func (r *ClassroomRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM classrooms WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check classroom name: %w", err)
	}
	return true, nil
}

// Create inserts a new classroom.
func (r *ClassroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	if classroom.ID == "" {
		classroom.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	classroom.CreatedAt = now
	classroom.UpdatedAt = now

	const query = `INSERT INTO classrooms (id, name, capacity, created_at, updated_at) VALUES (:id, :name, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, classroom); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// UpdateName renames a classroom. Capacity is never written after creation.
func (r *ClassroomRepository) UpdateName(ctx context.Context, classroom *models.Classroom) error {
	classroom.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classrooms SET name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, classroom); err != nil {
		return fmt.Errorf("update classroom: %w", err)
	}
	return nil
}

// DeleteBatch removes every classroom in ids or none. A missing id fails with
// sql.ErrNoRows and a classroom used by a non-deleted occupancy with
// ErrReferenced, both wrapped in *ItemError. Deletion holds the same lock as
// occupancy bookings of the classroom.
func (r *ClassroomRepository) DeleteBatch(ctx context.Context, ids []string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, "classroom:"+id)
	}
	return inLockedTx(ctx, r.db, keys, func(tx *sqlx.Tx) error {
		for _, id := range ids {
			var exists int
			if err := tx.GetContext(ctx, &exists, `SELECT 1 FROM classrooms WHERE id = $1 FOR UPDATE`, id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return &ItemError{ID: id, Err: sql.ErrNoRows}
				}
				return fmt.Errorf("lock classroom: %w", err)
			}
			var used int
			if err := tx.GetContext(ctx, &used, `SELECT COUNT(*) FROM occupancies WHERE classroom_id = $1 AND NOT deleted`, id); err != nil {
				return fmt.Errorf("count classroom occupancies: %w", err)
			}
			if used > 0 {
				return &ItemError{ID: id, Err: ErrReferenced}
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM classrooms WHERE id = $1`, id); err != nil {
				return fmt.Errorf("delete classroom: %w", err)
			}
		}
		return nil
	})
}

func pageBounds(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
