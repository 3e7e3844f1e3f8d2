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

const studentColumns = `st.id, st.first_name, st.last_name, st.email, st.class_id, st.group_number, st.created_at, st.updated_at`

// StudentRepository manages persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching filters along with total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students st WHERE 1=1"
	var args []interface{}
	if filter.ClassID != "" {
		base += fmt.Sprintf(" AND st.class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		base += fmt.Sprintf(" AND (LOWER(st.first_name) LIKE $%d OR LOWER(st.last_name) LIKE $%d OR LOWER(st.email) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1)
		args = append(args, search)
	}

	size, offset := pageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY st.last_name ASC, st.first_name ASC LIMIT %d OFFSET %d", studentColumns, base, size, offset)
	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT ` + studentColumns + ` FROM students st WHERE st.id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindDetail fetches a student with the name of their class.
func (r *StudentRepository) FindDetail(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT ` + studentColumns + `, c.name AS class_name FROM students st JOIN classes c ON c.id = st.class_id WHERE st.id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Subjects lists the live subjects of the student's class.
func (r *StudentRepository) Subjects(ctx context.Context, id string) ([]models.Subject, error) {
	const query = `SELECT ` + subjectColumns + ` FROM subjects s JOIN students st ON st.class_id = s.class_id
WHERE st.id = $1 AND NOT s.deleted ORDER BY s.name ASC`
	subjects := make([]models.Subject, 0)
	if err := r.db.SelectContext(ctx, &subjects, query, id); err != nil {
		return nil, fmt.Errorf("list student subjects: %w", err)
	}
	return subjects, nil
}

// ScheduledSeconds sums the live occupancies the student attends: whole-class
// sessions of their class plus those of their group.
func (r *StudentRepository) ScheduledSeconds(ctx context.Context, id string) (int64, error) {
	const query = `SELECT COALESCE(SUM(o.duration_seconds), 0) FROM occupancies o
JOIN subjects s ON s.id = o.subject_id
JOIN students st ON st.class_id = s.class_id
WHERE st.id = $1 AND NOT o.deleted AND (o.group_number = 0 OR o.group_number = st.group_number)`
	var total int64
	if err := r.db.GetContext(ctx, &total, query, id); err != nil {
		return 0, fmt.Errorf("sum student hours: %w", err)
	}
	return total, nil
}

// ExistsByEmail checks if another student uses the same email.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check student email: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, first_name, last_name, email, class_id, group_number, created_at, updated_at)
		VALUES (:id, :first_name, :last_name, :email, :class_id, :group_number, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update persists names, class and group of a student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, class_id = :class_id,
		group_number = :group_number, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteBatch removes every student in ids or none. A missing id fails with
// sql.ErrNoRows wrapped in *ItemError.
func (r *StudentRepository) DeleteBatch(ctx context.Context, ids []string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, "student:"+id)
	}
	return inLockedTx(ctx, r.db, keys, func(tx *sqlx.Tx) error {
		for _, id := range ids {
			result, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
			if err != nil {
				return fmt.Errorf("delete student: %w", err)
			}
			if affected, err := result.RowsAffected(); err == nil && affected == 0 {
				return &ItemError{ID: id, Err: sql.ErrNoRows}
			}
		}
		return nil
	})
}
