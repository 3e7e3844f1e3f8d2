package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scolendar-api/internal/models"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
)

func TestOccupancyServiceCreateDefaultsToTeacherInCharge(t *testing.T) {
	f := newOccupancyFixture(t)

	created, err := f.svc.Create(context.Background(), admin, mathBooking("a", 0, hour(8, 0), hour(10, 0)))
	require.NoError(t, err)

	require.NotNil(t, created.TeacherID)
	assert.Equal(t, "t1", *created.TeacherID)
	require.NotNil(t, created.ClassID)
	assert.Equal(t, "c1", *created.ClassID)
	assert.Equal(t, int64(7200), created.DurationSeconds)
	assert.Equal(t, []string{"class:c1", "classroom:a", "teacher:t1"}, f.store.serialized[0])
	assert.Equal(t, []string{OccupancyListingPattern}, f.cache.patterns)
	assert.Equal(t, 1, f.mutations.counts["create"])
}

func TestOccupancyServiceConflictScenario(t *testing.T) {
	f := newOccupancyFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, admin, booking("a", hour(8, 0), hour(10, 0)))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, admin, booking("a", hour(9, 0), hour(11, 0)))
	assert.ErrorIs(t, err, appErrors.ErrClassroomAlreadyOccupied)

	_, err = f.svc.Create(ctx, admin, booking("a", hour(10, 0), hour(12, 0)))
	assert.NoError(t, err, "back-to-back bookings do not overlap")

	_, err = f.svc.Create(ctx, admin, mathBooking("b", 1, hour(8, 0), hour(10, 0)))
	require.NoError(t, err)

	group2 := mathBooking("c", 2, hour(8, 0), hour(10, 0))
	group2.TeacherID = strPtr("t2")
	_, err = f.svc.Create(ctx, admin, group2)
	assert.NoError(t, err, "distinct groups of one class do not collide")

	whole := mathBooking("c", 0, hour(10, 0), hour(11, 0))
	_, err = f.svc.Create(ctx, admin, whole)
	assert.NoError(t, err)

	overlapping := mathBooking("a", 0, hour(9, 30), hour(9, 45))
	_, err = f.svc.Create(ctx, admin, overlapping)
	assert.ErrorIs(t, err, appErrors.ErrClassroomAlreadyOccupied, "classroom is checked before the class")

	wholeClash := mathBooking("a", 0, hour(12, 0), hour(13, 0))
	_, err = f.svc.Create(ctx, admin, wholeClash)
	require.NoError(t, err)
	groupClash := mathBooking("b", 1, hour(12, 30), hour(13, 30))
	groupClash.TeacherID = strPtr("t2")
	_, err = f.svc.Create(ctx, admin, groupClash)
	assert.ErrorIs(t, err, appErrors.ErrClassOrGroupAlreadyOccupied)

	teacherClash := booking("c", hour(12, 30), hour(13, 30))
	teacherClash.TeacherID = strPtr("t1")
	_, err = f.svc.Create(ctx, admin, teacherClash)
	assert.ErrorIs(t, err, appErrors.ErrTeacherAlreadyOccupied)
}

func TestOccupancyServiceCreateValidatesTypesAndTimes(t *testing.T) {
	f := newOccupancyFixture(t)
	ctx := context.Background()

	groupCM := mathBooking("a", 1, hour(8, 0), hour(9, 0))
	groupCM.OccupancyType = "cm"
	_, err := f.svc.Create(ctx, admin, groupCM)
	assert.ErrorIs(t, err, appErrors.ErrInvalidOccupancyType)

	wholeTD := mathBooking("a", 0, hour(8, 0), hour(9, 0))
	wholeTD.OccupancyType = "td"
	_, err = f.svc.Create(ctx, admin, wholeTD)
	assert.ErrorIs(t, err, appErrors.ErrInvalidOccupancyType)

	groupWithoutSubject := booking("a", hour(8, 0), hour(9, 0))
	groupWithoutSubject.GroupNumber = 2
	groupWithoutSubject.OccupancyType = "td"
	_, err = f.svc.Create(ctx, admin, groupWithoutSubject)
	assert.ErrorIs(t, err, appErrors.ErrInvalidOccupancyType)

	unknown := booking("a", hour(8, 0), hour(9, 0))
	unknown.OccupancyType = "party"
	_, err = f.svc.Create(ctx, admin, unknown)
	assert.ErrorIs(t, err, appErrors.ErrInvalidOccupancyType)

	_, err = f.svc.Create(ctx, admin, booking("a", hour(9, 0), hour(9, 0)))
	assert.ErrorIs(t, err, appErrors.ErrEndBeforeStart)

	_, err = f.svc.Create(ctx, admin, booking("nowhere", hour(8, 0), hour(9, 0)))
	assert.ErrorIs(t, err, appErrors.ErrInvalidID)

	missing := booking("a", hour(8, 0), hour(9, 0))
	missing.Name = ""
	_, err = f.svc.Create(ctx, admin, missing)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	assert.Empty(t, f.store.items)
}

func TestOccupancyServiceCreateAcceptsEpochStart(t *testing.T) {
	f := newOccupancyFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, admin, booking("a", 0, 3600))
	require.NoError(t, err)
	assert.Equal(t, int64(0), created.Start.Unix())
	assert.Equal(t, int64(3600), created.DurationSeconds)

	_, err = f.svc.Create(ctx, admin, booking("b", 0, 0))
	assert.ErrorIs(t, err, appErrors.ErrEndBeforeStart)

	result, err := f.svc.Check(ctx, admin, booking("a", 1800, 5400))
	require.NoError(t, err)
	assert.Equal(t, models.ConflictClassroom, result.Kind)
}

func TestOccupancyServiceTeacherResolution(t *testing.T) {
	f := newOccupancyFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, teacherTwo, mathBooking("a", 0, hour(8, 0), hour(9, 0)))
	require.NoError(t, err)
	assert.Equal(t, "t2", *created.TeacherID)

	_, err = f.svc.Create(ctx, outsider, mathBooking("b", 0, hour(10, 0), hour(11, 0)))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	onBehalf := mathBooking("b", 0, hour(10, 0), hour(11, 0))
	onBehalf.TeacherID = strPtr("t1")
	_, err = f.svc.Create(ctx, teacherTwo, onBehalf)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	notInSubject := mathBooking("b", 0, hour(10, 0), hour(11, 0))
	notInSubject.TeacherID = strPtr("t3")
	_, err = f.svc.Create(ctx, admin, notInSubject)
	assert.ErrorIs(t, err, appErrors.ErrTeacherNotInSubject)

	event, err := f.svc.Create(ctx, outsider, booking("c", hour(10, 0), hour(11, 0)))
	require.NoError(t, err)
	assert.Equal(t, "t3", *event.TeacherID)
	assert.Nil(t, event.ClassID)

	_, err = f.svc.Create(ctx, models.Actor{UserID: "s1", Role: models.RoleStudent}, booking("c", hour(12, 0), hour(13, 0)))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestOccupancyServiceUpdate(t *testing.T) {
	f := newOccupancyFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, admin, booking("a", hour(8, 0), hour(10, 0)))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, admin, booking("b", hour(8, 0), hour(10, 0)))
	require.NoError(t, err)

	moved, err := f.svc.Update(ctx, admin, first.ID, models.UpdateOccupancyRequest{Start: int64Ptr(hour(13, 0))})
	require.NoError(t, err)
	assert.Equal(t, hour(13, 0), moved.Start.Unix())
	assert.Equal(t, int64(7200), moved.DurationSeconds, "a new start alone keeps the duration")

	shortened, err := f.svc.Update(ctx, admin, first.ID, models.UpdateOccupancyRequest{End: int64Ptr(hour(14, 0))})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), shortened.DurationSeconds)

	_, err = f.svc.Update(ctx, admin, first.ID, models.UpdateOccupancyRequest{End: int64Ptr(hour(12, 0))})
	assert.ErrorIs(t, err, appErrors.ErrEndBeforeStart)

	_, err = f.svc.Update(ctx, admin, first.ID, models.UpdateOccupancyRequest{
		ClassroomID: strPtr("b"),
		Start:       int64Ptr(hour(9, 0)),
	})
	assert.ErrorIs(t, err, appErrors.ErrClassroomAlreadyOccupied)

	_, err = f.svc.Update(ctx, admin, "missing", models.UpdateOccupancyRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, appErrors.ErrInvalidID)

	stored := f.store.items[first.ID]
	assert.Equal(t, "a", stored.ClassroomID)
	assert.Equal(t, hour(13, 0), stored.Start.Unix())
}

func TestOccupancyServiceUpdateDetectsConcurrentWriter(t *testing.T) {
	f := newOccupancyFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, admin, booking("a", hour(8, 0), hour(10, 0)))
	require.NoError(t, err)

	f.store.onSerialize = func() {
		o := f.store.items[created.ID]
		o.UpdatedAt = f.store.tick()
		f.store.items[created.ID] = o
	}
	_, err = f.svc.Update(ctx, admin, created.ID, models.UpdateOccupancyRequest{Start: int64Ptr(hour(11, 0))})
	assert.ErrorIs(t, err, appErrors.ErrConcurrentModification)
}

func TestOccupancyServiceRoundTripThroughListing(t *testing.T) {
	f := newOccupancyFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, admin, booking("a", hour(8, 0), hour(10, 0)))
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, admin, created.ID, models.UpdateOccupancyRequest{})
	require.NoError(t, err)

	days, err := f.query.List(ctx, models.OccupancyFilter{Resource: models.OccupancyResourceClassroom, ResourceID: "a"})
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "05-10-2026", days[0].Date)
	require.Len(t, days[0].Occupancies, 1)
	got := days[0].Occupancies[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, hour(8, 0), got.Start)
	assert.Equal(t, hour(10, 0), got.End)
	assert.Equal(t, "Lecture", got.Name)
}

func TestOccupancyServiceDeleteIsAllOrNothing(t *testing.T) {
	f := newOccupancyFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, admin, booking("a", hour(8, 0), hour(9, 0)))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, admin, booking("b", hour(8, 0), hour(9, 0)))
	require.NoError(t, err)

	err = f.svc.Delete(ctx, admin, []string{first.ID, "missing"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidID)
	assert.False(t, f.store.items[first.ID].Deleted)

	require.NoError(t, f.svc.Delete(ctx, admin, []string{first.ID, second.ID, first.ID}))
	assert.True(t, f.store.items[first.ID].Deleted)
	assert.True(t, f.store.items[second.ID].Deleted)
	assert.Equal(t, 2, f.mutations.counts["delete"])

	err = f.svc.Delete(ctx, admin, []string{first.ID})
	assert.ErrorIs(t, err, appErrors.ErrInvalidID, "deleting twice reports the id as unknown")

	_, err = f.svc.Create(ctx, admin, booking("a", hour(8, 0), hour(9, 0)))
	assert.NoError(t, err, "deleted occupancies no longer block their slot")
}

func TestOccupancyServiceDeleteRestrictsTeachers(t *testing.T) {
	f := newOccupancyFixture(t)
	ctx := context.Background()

	lesson, err := f.svc.Create(ctx, admin, mathBooking("a", 0, hour(8, 0), hour(9, 0)))
	require.NoError(t, err)

	err = f.svc.Delete(ctx, outsider, []string{lesson.ID})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.False(t, f.store.items[lesson.ID].Deleted)

	require.NoError(t, f.svc.Delete(ctx, teacherOne, []string{lesson.ID}))
}

func TestOccupancyServiceCheckReportsConflict(t *testing.T) {
	f := newOccupancyFixture(t)
	ctx := context.Background()

	existing, err := f.svc.Create(ctx, admin, booking("a", hour(8, 0), hour(10, 0)))
	require.NoError(t, err)

	result, err := f.svc.Check(ctx, admin, booking("a", hour(9, 0), hour(9, 30)))
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, models.ConflictClassroom, result.Kind)
	assert.Equal(t, appErrors.ErrClassroomAlreadyOccupied.Code, result.Code)
	assert.Equal(t, existing.ID, result.ConflictsID)
	assert.Len(t, f.store.items, 1)
}

func TestOccupancyServiceCheckBatchSeesEarlierDrafts(t *testing.T) {
	f := newOccupancyFixture(t)
	invalid := booking("a", hour(14, 0), hour(15, 0))
	invalid.OccupancyType = "party"

	results, err := f.svc.CheckBatch(context.Background(), admin, models.CheckBatchRequest{Occupancies: []models.CreateOccupancyRequest{
		booking("a", hour(8, 0), hour(10, 0)),
		booking("a", hour(9, 0), hour(11, 0)),
		booking("a", hour(10, 0), hour(11, 0)),
		invalid,
	}})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Equal(t, models.ConflictClassroom, results[1].Kind)
	assert.True(t, results[2].OK)
	assert.False(t, results[3].OK)
	assert.Equal(t, appErrors.ErrInvalidOccupancyType.Code, results[3].Code)
	assert.Empty(t, f.store.items)
}
