package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/internal/scheduling"
)

var occupancyRowColumns = []string{"id", "classroom_id", "subject_id", "teacher_id", "class_id", "group_number", "start_datetime", "duration_seconds", "occupancy_type", "name", "deleted", "created_at", "updated_at"}

type observerStub struct {
	labels []string
}

func (o *observerStub) ObserveDBQuery(query string, _ time.Duration) {
	o.labels = append(o.labels, query)
}

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock, func() { db.Close() }
}

func TestOccupancyRepositoryOverlappingClassroom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	observer := &observerStub{}
	repo := NewOccupancyRepository(db, observer)

	start := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	rows := sqlmock.NewRows(occupancyRowColumns).
		AddRow("o1", "room-1", "s1", "t1", "c1", 0, start, int64(5400), "cm", "Algo CM", false, start, start)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.classroom_id = $1 AND NOT o.deleted AND o.start_datetime < $2 AND o.start_datetime + o.duration_seconds * INTERVAL '1 second' > $3 ORDER BY o.start_datetime, o.id")).
		WithArgs("room-1", end, start).
		WillReturnRows(rows)

	got, err := repo.Overlapping(context.Background(), scheduling.ClassroomKey("room-1"), scheduling.Interval{Start: start, End: end})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].ID)
	assert.Equal(t, int64(5400), got[0].DurationSeconds)
	require.NotNil(t, got[0].ClassID)
	assert.Equal(t, "c1", *got[0].ClassID)
	assert.Equal(t, []string{"occupancy_overlap_classroom"}, observer.labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRepositoryOverlappingGroupExpansion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOccupancyRepository(db, nil)

	start := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	window := scheduling.Interval{Start: start, End: end}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.class_id = $1 AND NOT o.deleted")).
		WithArgs("c1", end, start, 2).
		WillReturnRows(sqlmock.NewRows(occupancyRowColumns))
	_, err := repo.Overlapping(context.Background(), scheduling.ClassGroupKey("c1", models.Group(2)), window)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.class_id = $1 AND NOT o.deleted")).
		WithArgs("c1", end, start).
		WillReturnRows(sqlmock.NewRows(occupancyRowColumns))
	got, err := repo.Overlapping(context.Background(), scheduling.ClassGroupKey("c1", models.WholeClass()), window)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRepositorySerializeLocksSortedKeysAndCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOccupancyRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).WithArgs("class:c1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).WithArgs("classroom:r1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO occupancies")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Serialize(context.Background(), []string{"classroom:r1", "class:c1", "classroom:r1"}, func(store scheduling.Store) error {
		return store.Create(context.Background(), &models.Occupancy{ClassroomID: "r1", DurationSeconds: 60, OccupancyType: "cm", Name: "x"})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRepositorySerializeRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOccupancyRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).WithArgs("classroom:r1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	boom := errors.New("conflict")
	err := repo.Serialize(context.Background(), []string{"classroom:r1"}, func(store scheduling.Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOccupancyRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.id = $1 AND NOT o.deleted")).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "gone")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRepositorySoftDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOccupancyRepository(db, nil)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE occupancies SET deleted = TRUE, updated_at = $1 WHERE id IN ($2, $3) AND NOT deleted")).
		WithArgs(sqlmock.AnyArg(), "o1", "o2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.SoftDelete(context.Background(), []string{"o1", "o2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRepositoryListAppliesBounds(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOccupancyRepository(db, nil)

	from := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	columns := append(append([]string{}, occupancyRowColumns...), "classroom_name", "subject_name", "class_name", "teacher_first_name", "teacher_last_name")
	rows := sqlmock.NewRows(columns).
		AddRow("o1", "room-1", "s1", "t1", "c1", 1, from.Add(9*time.Hour), int64(3600), "td", "Algo TD", false, from, from, "B.001", "Algo", "L3", "Ada", "LOVELACE")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE NOT o.deleted AND o.subject_id = $1 AND o.start_datetime >= $2 AND o.start_datetime + o.duration_seconds * INTERVAL '1 second' <= $3 ORDER BY o.start_datetime, o.id")).
		WithArgs("s1", from, to).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), models.OccupancyFilter{Resource: models.OccupancyResourceSubject, ResourceID: "s1", Start: &from, End: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B.001", *got[0].ClassroomName)
	assert.Equal(t, "LOVELACE", *got[0].TeacherLastName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRepositorySubjectAggregates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOccupancyRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT group_number FROM occupancies")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"group_number"}).AddRow(1).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(duration_seconds), 0) FROM occupancies")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(7200)))

	groups, err := repo.GroupsBySubject(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, groups)

	total, err := repo.ScheduledSecondsBySubject(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(7200), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
