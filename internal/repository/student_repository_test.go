package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scolendar-api/internal/models"
)

var studentRowColumns = []string{"id", "first_name", "last_name", "email", "class_id", "group_number", "created_at", "updated_at"}

func TestStudentRepositoryListFiltersByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("st1", "Ada", "LOVELACE", "ada@example.com", "c1", 2, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM students st WHERE 1=1 AND st.class_id = $1 ORDER BY st.last_name ASC, st.first_name ASC LIMIT 20 OFFSET 0")).
		WithArgs("c1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students st WHERE 1=1 AND st.class_id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.StudentFilter{ClassID: "c1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].GroupNumber)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySubjectsAndHoursSkipRetiredRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN students st ON st.class_id = s.class_id\nWHERE st.id = $1 AND NOT s.deleted")).
		WithArgs("st1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "class_id", "created_at", "updated_at"}).
			AddRow("s1", "Algebra", "c1", time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE st.id = $1 AND NOT o.deleted AND (o.group_number = 0 OR o.group_number = st.group_number)")).
		WithArgs("st1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(5400)))

	subjects, err := repo.Subjects(context.Background(), "st1")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	seconds, err := repo.ScheduledSeconds(context.Background(), "st1")
	require.NoError(t, err)
	assert.Equal(t, int64(5400), seconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateReportsMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET first_name = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Student{ID: "ghost", ClassID: "c1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteBatchIsAllOrNothing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).WithArgs("student:st1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).WithArgs("student:st2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).WithArgs("st1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).WithArgs("st2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteBatch(context.Background(), []string{"st1", "st2"})
	var item *ItemError
	require.ErrorAs(t, err, &item)
	assert.Equal(t, "st2", item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRepositoryListForStudentKeepsTheirGroup(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOccupancyRepository(db, nil)

	columns := append(append([]string{}, occupancyRowColumns...), "classroom_name", "subject_name", "class_name", "teacher_first_name", "teacher_last_name")
	mock.ExpectQuery(regexp.QuoteMeta("EXISTS (SELECT 1 FROM students st WHERE st.id = $1 AND st.class_id = s.class_id AND (o.group_number = 0 OR o.group_number = st.group_number))")).
		WithArgs("st1").
		WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.List(context.Background(), models.OccupancyFilter{Resource: models.OccupancyResourceStudent, ResourceID: "st1"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
