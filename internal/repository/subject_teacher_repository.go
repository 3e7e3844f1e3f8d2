package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scolendar-api/internal/models"
)

// SubjectTeacherRepository manages the teachers assigned to subjects.
type SubjectTeacherRepository struct {
	db *sqlx.DB
}

// NewSubjectTeacherRepository constructs a SubjectTeacherRepository.
func NewSubjectTeacherRepository(db *sqlx.DB) *SubjectTeacherRepository {
	return &SubjectTeacherRepository{db: db}
}

// ListBySubject returns the assignments of a subject with teacher names, in charge first.
func (r *SubjectTeacherRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectTeacherDetail, error) {
	const query = `SELECT st.subject_id, st.teacher_id, st.in_charge, st.created_at, t.first_name, t.last_name
FROM subject_teachers st
JOIN teachers t ON t.id = st.teacher_id
WHERE st.subject_id = $1
ORDER BY st.in_charge DESC, t.last_name ASC, t.first_name ASC`
	details := make([]models.SubjectTeacherDetail, 0)
	if err := r.db.SelectContext(ctx, &details, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject teachers: %w", err)
	}
	return details, nil
}

// Find fetches one assignment.
func (r *SubjectTeacherRepository) Find(ctx context.Context, subjectID, teacherID string) (*models.SubjectTeacher, error) {
	const query = `SELECT subject_id, teacher_id, in_charge, created_at FROM subject_teachers WHERE subject_id = $1 AND teacher_id = $2`
	var assignment models.SubjectTeacher
	if err := r.db.GetContext(ctx, &assignment, query, subjectID, teacherID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindInCharge fetches the in-charge assignment of a subject.
func (r *SubjectTeacherRepository) FindInCharge(ctx context.Context, subjectID string) (*models.SubjectTeacher, error) {
	const query = `SELECT subject_id, teacher_id, in_charge, created_at FROM subject_teachers WHERE subject_id = $1 AND in_charge`
	var assignment models.SubjectTeacher
	if err := r.db.GetContext(ctx, &assignment, query, subjectID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// AddBatch assigns every teacher or none. Already assigned teachers are left
// untouched; an unknown teacher fails with sql.ErrNoRows wrapped in *ItemError.
func (r *SubjectTeacherRepository) AddBatch(ctx context.Context, subjectID string, teacherIDs []string) error {
	return inLockedTx(ctx, r.db, []string{"subject:" + subjectID}, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		for _, teacherID := range teacherIDs {
			var exists int
			if err := tx.GetContext(ctx, &exists, `SELECT 1 FROM teachers WHERE id = $1`, teacherID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return &ItemError{ID: teacherID, Err: sql.ErrNoRows}
				}
				return fmt.Errorf("check teacher: %w", err)
			}
			const insert = `INSERT INTO subject_teachers (subject_id, teacher_id, in_charge, created_at) VALUES ($1, $2, FALSE, $3)
ON CONFLICT (subject_id, teacher_id) DO NOTHING`
			if _, err := tx.ExecContext(ctx, insert, subjectID, teacherID, now); err != nil {
				return fmt.Errorf("assign teacher: %w", err)
			}
		}
		return nil
	})
}

// RemovalGuard decides whether teacherID may leave a subject whose current assignments are given.
type RemovalGuard func(current []models.SubjectTeacher, teacherID string) error

// RemoveBatch unassigns teachers in order, all or none. guard sees the
// assignments left after the previous removals of the batch.
func (r *SubjectTeacherRepository) RemoveBatch(ctx context.Context, subjectID string, teacherIDs []string, guard RemovalGuard) error {
	return inLockedTx(ctx, r.db, []string{"subject:" + subjectID}, func(tx *sqlx.Tx) error {
		const selectQuery = `SELECT subject_id, teacher_id, in_charge, created_at FROM subject_teachers WHERE subject_id = $1 ORDER BY teacher_id FOR UPDATE`
		var current []models.SubjectTeacher
		if err := tx.SelectContext(ctx, &current, selectQuery, subjectID); err != nil {
			return fmt.Errorf("lock subject teachers: %w", err)
		}

		for _, teacherID := range teacherIDs {
			if err := guard(current, teacherID); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM subject_teachers WHERE subject_id = $1 AND teacher_id = $2`, subjectID, teacherID); err != nil {
				return fmt.Errorf("unassign teacher: %w", err)
			}
			current = withoutTeacher(current, teacherID)
		}
		return nil
	})
}

func withoutTeacher(list []models.SubjectTeacher, teacherID string) []models.SubjectTeacher {
	out := list[:0:0]
	for _, item := range list {
		if item.TeacherID != teacherID {
			out = append(out, item)
		}
	}
	return out
}
