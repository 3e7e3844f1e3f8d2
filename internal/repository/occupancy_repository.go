package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/internal/scheduling"
)

const occupancyColumns = `o.id, COALESCE(o.classroom_id::text, '') AS classroom_id, o.subject_id, o.teacher_id, s.class_id,
	o.group_number, o.start_datetime, o.duration_seconds, o.occupancy_type, o.name, o.deleted, o.created_at, o.updated_at`

const occupancyFrom = `FROM occupancies o LEFT JOIN subjects s ON s.id = o.subject_id`

const overlapCondition = `NOT o.deleted AND o.start_datetime < $2 AND o.start_datetime + o.duration_seconds * INTERVAL '1 second' > $3`

// occupancyQueries implements scheduling.Store against a database handle or a transaction.
type occupancyQueries struct {
	ext      sqlx.ExtContext
	observer QueryObserver
}

// Overlapping returns non-deleted occupancies of the resource intersecting [window.Start, window.End).
func (q *occupancyQueries) Overlapping(ctx context.Context, key scheduling.ResourceKey, window scheduling.Interval) ([]models.Occupancy, error) {
	var query string
	args := []interface{}{key.ID, window.End, window.Start}
	switch key.Kind {
	case scheduling.KindClassroom:
		query = fmt.Sprintf("SELECT %s %s WHERE o.classroom_id = $1 AND %s ORDER BY o.start_datetime, o.id", occupancyColumns, occupancyFrom, overlapCondition)
	case scheduling.KindTeacher:
		query = fmt.Sprintf("SELECT %s %s WHERE o.teacher_id = $1 AND %s ORDER BY o.start_datetime, o.id", occupancyColumns, occupancyFrom, overlapCondition)
	case scheduling.KindClassGroup:
		query = fmt.Sprintf("SELECT %s %s WHERE s.class_id = $1 AND %s", occupancyColumns, occupancyFrom, overlapCondition)
		if !key.Group.IsWholeClass() {
			query += " AND o.group_number IN (0, $4)"
			args = append(args, key.Group.Number())
		}
		query += " ORDER BY o.start_datetime, o.id"
	default:
		return nil, fmt.Errorf("unknown resource kind %q", key.Kind)
	}

	defer observe(q.observer, "occupancy_overlap_"+strings.ReplaceAll(string(key.Kind), "-", "_"), time.Now())
	result := make([]models.Occupancy, 0)
	if err := sqlx.SelectContext(ctx, q.ext, &result, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping occupancies: %w", err)
	}
	return result, nil
}

// FindByID fetches a non-deleted occupancy.
func (q *occupancyQueries) FindByID(ctx context.Context, id string) (*models.Occupancy, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE o.id = $1 AND NOT o.deleted", occupancyColumns, occupancyFrom)
	var occupancy models.Occupancy
	if err := sqlx.GetContext(ctx, q.ext, &occupancy, query, id); err != nil {
		return nil, err
	}
	return &occupancy, nil
}

// Create inserts a new occupancy.
func (q *occupancyQueries) Create(ctx context.Context, occupancy *models.Occupancy) error {
	if occupancy.ID == "" {
		occupancy.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if occupancy.CreatedAt.IsZero() {
		occupancy.CreatedAt = now
	}
	occupancy.UpdatedAt = now

	const query = `INSERT INTO occupancies (id, classroom_id, subject_id, teacher_id, group_number, start_datetime, duration_seconds, occupancy_type, name, deleted, created_at, updated_at)
		VALUES (:id, :classroom_id, :subject_id, :teacher_id, :group_number, :start_datetime, :duration_seconds, :occupancy_type, :name, :deleted, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, q.ext, query, occupancy); err != nil {
		return fmt.Errorf("create occupancy: %w", err)
	}
	return nil
}

// Update persists the mutable fields of an occupancy.
func (q *occupancyQueries) Update(ctx context.Context, occupancy *models.Occupancy) error {
	occupancy.UpdatedAt = time.Now().UTC()
	const query = `UPDATE occupancies SET classroom_id = :classroom_id, start_datetime = :start_datetime, duration_seconds = :duration_seconds, name = :name, updated_at = :updated_at
		WHERE id = :id AND NOT deleted`
	if _, err := sqlx.NamedExecContext(ctx, q.ext, query, occupancy); err != nil {
		return fmt.Errorf("update occupancy: %w", err)
	}
	return nil
}

// SoftDelete flags occupancies as deleted.
func (q *occupancyQueries) SoftDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE occupancies SET deleted = TRUE, updated_at = ? WHERE id IN (?) AND NOT deleted`, time.Now().UTC(), ids)
	if err != nil {
		return fmt.Errorf("build soft delete: %w", err)
	}
	if _, err := q.ext.ExecContext(ctx, q.ext.Rebind(query), args...); err != nil {
		return fmt.Errorf("soft delete occupancies: %w", err)
	}
	return nil
}

// OccupancyRepository manages persistence for occupancies.
type OccupancyRepository struct {
	occupancyQueries
	db *sqlx.DB
}

// NewOccupancyRepository constructs an OccupancyRepository. observer may be nil.
func NewOccupancyRepository(db *sqlx.DB, observer QueryObserver) *OccupancyRepository {
	return &OccupancyRepository{
		occupancyQueries: occupancyQueries{ext: db, observer: observer},
		db:               db,
	}
}

// Serialize runs fn with a store bound to one transaction that holds the advisory locks of keys.
func (r *OccupancyRepository) Serialize(ctx context.Context, keys []string, fn func(store scheduling.Store) error) error {
	return inLockedTx(ctx, r.db, keys, func(tx *sqlx.Tx) error {
		return fn(&occupancyQueries{ext: tx, observer: r.observer})
	})
}

// List returns the enriched non-deleted occupancies matching the filter, ordered by start then id.
func (r *OccupancyRepository) List(ctx context.Context, filter models.OccupancyFilter) ([]models.OccupancyDetail, error) {
	var conditions []string
	var args []interface{}

	switch filter.Resource {
	case models.OccupancyResourceClassroom:
		conditions = append(conditions, fmt.Sprintf("o.classroom_id = $%d", len(args)+1))
		args = append(args, filter.ResourceID)
	case models.OccupancyResourceSubject:
		conditions = append(conditions, fmt.Sprintf("o.subject_id = $%d", len(args)+1))
		args = append(args, filter.ResourceID)
	case models.OccupancyResourceClass:
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ResourceID)
	case models.OccupancyResourceTeacher:
		conditions = append(conditions, fmt.Sprintf("o.teacher_id = $%d", len(args)+1))
		args = append(args, filter.ResourceID)
	case models.OccupancyResourceStudent:
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM students st WHERE st.id = $%d AND st.class_id = s.class_id AND (o.group_number = 0 OR o.group_number = st.group_number))",
			len(args)+1))
		args = append(args, filter.ResourceID)
	}
	if filter.Start != nil {
		conditions = append(conditions, fmt.Sprintf("o.start_datetime >= $%d", len(args)+1))
		args = append(args, *filter.Start)
	}
	if filter.End != nil {
		conditions = append(conditions, fmt.Sprintf("o.start_datetime + o.duration_seconds * INTERVAL '1 second' <= $%d", len(args)+1))
		args = append(args, *filter.End)
	}

	query := fmt.Sprintf(`SELECT %s, cr.name AS classroom_name, s.name AS subject_name, c.name AS class_name,
	t.first_name AS teacher_first_name, t.last_name AS teacher_last_name
%s
LEFT JOIN classes c ON c.id = s.class_id
LEFT JOIN classrooms cr ON cr.id = o.classroom_id
LEFT JOIN teachers t ON t.id = o.teacher_id
WHERE NOT o.deleted`, occupancyColumns, occupancyFrom)
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY o.start_datetime, o.id"

	defer observe(r.observer, "occupancy_list", time.Now())
	result := make([]models.OccupancyDetail, 0)
	if err := r.db.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, fmt.Errorf("list occupancies: %w", err)
	}
	return result, nil
}

// FindManyByID fetches the non-deleted occupancies among ids.
func (r *OccupancyRepository) FindManyByID(ctx context.Context, ids []string) ([]models.Occupancy, error) {
	result := make([]models.Occupancy, 0, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s %s WHERE o.id IN (?) AND NOT o.deleted", occupancyColumns, occupancyFrom), ids)
	if err != nil {
		return nil, fmt.Errorf("build find occupancies: %w", err)
	}
	if err := r.db.SelectContext(ctx, &result, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find occupancies: %w", err)
	}
	return result, nil
}

// GroupsBySubject returns the distinct group numbers scheduled for a subject, whole class excluded.
func (r *OccupancyRepository) GroupsBySubject(ctx context.Context, subjectID string) ([]int, error) {
	const query = `SELECT DISTINCT group_number FROM occupancies WHERE subject_id = $1 AND NOT deleted AND group_number > 0 ORDER BY group_number`
	groups := make([]int, 0)
	if err := r.db.SelectContext(ctx, &groups, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject groups: %w", err)
	}
	return groups, nil
}

// ScheduledSecondsBySubject sums the durations of a subject's non-deleted occupancies.
func (r *OccupancyRepository) ScheduledSecondsBySubject(ctx context.Context, subjectID string) (int64, error) {
	const query = `SELECT COALESCE(SUM(duration_seconds), 0) FROM occupancies WHERE subject_id = $1 AND NOT deleted`
	var total int64
	if err := r.db.GetContext(ctx, &total, query, subjectID); err != nil {
		return 0, fmt.Errorf("sum subject durations: %w", err)
	}
	return total, nil
}
