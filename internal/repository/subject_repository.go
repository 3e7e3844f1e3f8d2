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

const subjectColumns = `s.id, s.name, s.class_id, s.created_at, s.updated_at`

// ErrClassTimetableClash reports that a subject's occupancies overlap the
// timetable of the class it is being moved to.
var ErrClassTimetableClash = errors.New("subject occupancies overlap the target class timetable")

// ErrStaleRead reports that a row changed between the caller's read and the write.
var ErrStaleRead = errors.New("row changed since it was read")

// classMoveClashQuery returns the first occupancy of another subject of class
// $2 sharing students and time with a live occupancy of subject $1.
const classMoveClashQuery = `SELECT other.id FROM occupancies o
JOIN occupancies other ON other.id <> o.id AND NOT other.deleted
JOIN subjects os ON os.id = other.subject_id AND os.id <> $1 AND os.class_id = $2 AND NOT os.deleted
WHERE o.subject_id = $1 AND NOT o.deleted
AND other.start_datetime < o.start_datetime + o.duration_seconds * INTERVAL '1 second'
AND other.start_datetime + other.duration_seconds * INTERVAL '1 second' > o.start_datetime
AND (o.group_number = 0 OR other.group_number = 0 OR o.group_number = other.group_number)
ORDER BY other.start_datetime, other.id LIMIT 1`

// SubjectRepository manages persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects matching filters along with total count.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	base := "FROM subjects s WHERE NOT s.deleted"
	var args []interface{}
	if filter.ClassID != "" {
		base += fmt.Sprintf(" AND s.class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(s.name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	size, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY s.name ASC LIMIT %d OFFSET %d", subjectColumns, base, size, offset)
	subjects := make([]models.Subject, 0)
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}
	return subjects, total, nil
}

// FindByID fetches a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT ` + subjectColumns + ` FROM subjects s WHERE s.id = $1 AND NOT s.deleted`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindDetail fetches a subject with its class name.
func (r *SubjectRepository) FindDetail(ctx context.Context, id string) (*models.SubjectDetail, error) {
	const query = `SELECT ` + subjectColumns + `, c.name AS class_name FROM subjects s JOIN classes c ON c.id = s.class_id WHERE s.id = $1 AND NOT s.deleted`
	var detail models.SubjectDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a subject and its in-charge assignment in one transaction.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject, inChargeID string) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now

	return inLockedTx(ctx, r.db, []string{"subject:" + subject.ID}, func(tx *sqlx.Tx) error {
		const insertSubject = `INSERT INTO subjects (id, name, class_id, created_at, updated_at) VALUES (:id, :name, :class_id, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insertSubject, subject); err != nil {
			return fmt.Errorf("create subject: %w", err)
		}
		const insertTeacher = `INSERT INTO subject_teachers (subject_id, teacher_id, in_charge, created_at) VALUES ($1, $2, TRUE, $3)`
		if _, err := tx.ExecContext(ctx, insertTeacher, subject.ID, inChargeID, now); err != nil {
			return fmt.Errorf("assign teacher in charge: %w", err)
		}
		return nil
	})
}

// Update persists name and class and, when inChargeID is set, moves the
// in-charge flag to that teacher, assigning them when needed. A class change
// locks both classes and fails with ErrClassTimetableClash, wrapped in
// *ItemError naming the clashing occupancy, when the subject's occupancies
// would share students and time with the new class's timetable.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject, previousClassID string, inChargeID *string) error {
	subject.UpdatedAt = time.Now().UTC()
	keys := []string{"subject:" + subject.ID}
	moved := previousClassID != "" && previousClassID != subject.ClassID
	if moved {
		keys = append(keys, "class:"+previousClassID, "class:"+subject.ClassID)
	}
	return inLockedTx(ctx, r.db, keys, func(tx *sqlx.Tx) error {
		if moved {
			var current string
			if err := tx.GetContext(ctx, &current, `SELECT class_id FROM subjects WHERE id = $1 AND NOT deleted FOR UPDATE`, subject.ID); err != nil {
				return fmt.Errorf("lock subject: %w", err)
			}
			if current != previousClassID {
				return ErrStaleRead
			}
			var clash string
			err := tx.GetContext(ctx, &clash, classMoveClashQuery, subject.ID, subject.ClassID)
			switch {
			case err == nil:
				return &ItemError{ID: clash, Err: ErrClassTimetableClash}
			case !errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("check class timetable: %w", err)
			}
		}
		const updateSubject = `UPDATE subjects SET name = :name, class_id = :class_id, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, updateSubject, subject); err != nil {
			return fmt.Errorf("update subject: %w", err)
		}
		if inChargeID == nil {
			return nil
		}
		const demote = `UPDATE subject_teachers SET in_charge = FALSE WHERE subject_id = $1 AND in_charge AND teacher_id <> $2`
		if _, err := tx.ExecContext(ctx, demote, subject.ID, *inChargeID); err != nil {
			return fmt.Errorf("demote teacher in charge: %w", err)
		}
		const promote = `INSERT INTO subject_teachers (subject_id, teacher_id, in_charge, created_at) VALUES ($1, $2, TRUE, $3)
ON CONFLICT (subject_id, teacher_id) DO UPDATE SET in_charge = TRUE`
		if _, err := tx.ExecContext(ctx, promote, subject.ID, *inChargeID, subject.UpdatedAt); err != nil {
			return fmt.Errorf("promote teacher in charge: %w", err)
		}
		return nil
	})
}

// DeleteBatch soft-deletes every subject in ids or none, together with their
// occupancies. Rows stay in place for history. A missing id fails with
// sql.ErrNoRows wrapped in *ItemError.
func (r *SubjectRepository) DeleteBatch(ctx context.Context, ids []string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, "subject:"+id)
	}
	return inLockedTx(ctx, r.db, keys, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		for _, id := range ids {
			var exists int
			if err := tx.GetContext(ctx, &exists, `SELECT 1 FROM subjects WHERE id = $1 AND NOT deleted FOR UPDATE`, id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return &ItemError{ID: id, Err: sql.ErrNoRows}
				}
				return fmt.Errorf("lock subject: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE occupancies SET deleted = TRUE, updated_at = $2 WHERE subject_id = $1 AND NOT deleted`, id, now); err != nil {
				return fmt.Errorf("retire subject occupancies: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE subjects SET deleted = TRUE, updated_at = $2 WHERE id = $1`, id, now); err != nil {
				return fmt.Errorf("delete subject: %w", err)
			}
		}
		return nil
	})
}
