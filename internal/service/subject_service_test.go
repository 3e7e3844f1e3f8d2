package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/internal/repository"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
)

type subjectRepoStub struct {
	subjects map[string]models.Subject
	inCharge map[string]string
	deleted  []string
	moves    [][2]string
	// clashes maps a target class to the occupancy a move into it would overlap.
	clashes map[string]string
}

func (s *subjectRepoStub) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	out := make([]models.Subject, 0, len(s.subjects))
	for _, subject := range s.subjects {
		out = append(out, subject)
	}
	return out, len(out), nil
}

func (s *subjectRepoStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	subject, ok := s.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &subject, nil
}

func (s *subjectRepoStub) FindDetail(ctx context.Context, id string) (*models.SubjectDetail, error) {
	subject, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SubjectDetail{Subject: *subject, ClassName: "L1"}, nil
}

func (s *subjectRepoStub) Create(ctx context.Context, subject *models.Subject, inChargeID string) error {
	subject.ID = "generated"
	s.subjects[subject.ID] = *subject
	s.inCharge[subject.ID] = inChargeID
	return nil
}

func (s *subjectRepoStub) Update(ctx context.Context, subject *models.Subject, previousClassID string, inChargeID *string) error {
	if previousClassID != subject.ClassID {
		if occupancyID, ok := s.clashes[subject.ClassID]; ok {
			return &repository.ItemError{ID: occupancyID, Err: repository.ErrClassTimetableClash}
		}
		s.moves = append(s.moves, [2]string{previousClassID, subject.ClassID})
	}
	s.subjects[subject.ID] = *subject
	if inChargeID != nil {
		s.inCharge[subject.ID] = *inChargeID
	}
	return nil
}

func (s *subjectRepoStub) DeleteBatch(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, ok := s.subjects[id]; !ok {
			return &repository.ItemError{ID: id, Err: sql.ErrNoRows}
		}
	}
	s.deleted = append(s.deleted, ids...)
	return nil
}

// staffStub applies removals the way the repository does: in order, all or none.
type staffStub struct {
	assignments []models.SubjectTeacher
}

func (s *staffStub) ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectTeacherDetail, error) {
	out := make([]models.SubjectTeacherDetail, 0)
	for _, a := range s.assignments {
		if a.SubjectID == subjectID {
			out = append(out, models.SubjectTeacherDetail{SubjectTeacher: a})
		}
	}
	return out, nil
}

func (s *staffStub) AddBatch(ctx context.Context, subjectID string, teacherIDs []string) error {
	for _, id := range teacherIDs {
		if id == "ghost" {
			return &repository.ItemError{ID: id, Err: sql.ErrNoRows}
		}
	}
	for _, id := range teacherIDs {
		s.assignments = append(s.assignments, models.SubjectTeacher{SubjectID: subjectID, TeacherID: id})
	}
	return nil
}

func (s *staffStub) RemoveBatch(ctx context.Context, subjectID string, teacherIDs []string, guard repository.RemovalGuard) error {
	current := append([]models.SubjectTeacher(nil), s.assignments...)
	for _, id := range teacherIDs {
		if err := guard(current, id); err != nil {
			return err
		}
		next := current[:0:0]
		for _, a := range current {
			if a.TeacherID != id {
				next = append(next, a)
			}
		}
		current = next
	}
	s.assignments = current
	return nil
}

type statsStub struct {
	groups  []int
	seconds int64
}

func (s statsStub) GroupsBySubject(ctx context.Context, subjectID string) ([]int, error) {
	return s.groups, nil
}

func (s statsStub) ScheduledSecondsBySubject(ctx context.Context, subjectID string) (int64, error) {
	return s.seconds, nil
}

func newSubjectFixture() (*SubjectService, *subjectRepoStub, *staffStub, *invalidationSpy) {
	repo := &subjectRepoStub{
		subjects: map[string]models.Subject{"math": {ID: "math", Name: "Math", ClassID: "c1"}},
		inCharge: map[string]string{"math": "t1"},
	}
	staff := &staffStub{assignments: []models.SubjectTeacher{
		{SubjectID: "math", TeacherID: "t1", InCharge: true},
		{SubjectID: "math", TeacherID: "t2"},
	}}
	cache := &invalidationSpy{}
	svc := NewSubjectService(
		repo,
		staff,
		statsStub{groups: []int{1, 2}, seconds: 5400},
		classStub{"c1": {ID: "c1"}, "c2": {ID: "c2"}},
		teacherStub{"t1": {ID: "t1"}, "t2": {ID: "t2"}, "t3": {ID: "t3"}},
		cache,
		nil,
		nil,
	)
	return svc, repo, staff, cache
}

func TestSubjectServiceTeacherRemovalScenario(t *testing.T) {
	svc, _, staff, _ := newSubjectFixture()
	ctx := context.Background()
	remove := func(ids ...string) error {
		return svc.RemoveTeachers(ctx, "math", models.SubjectTeachersRequest{TeacherIDs: ids})
	}

	require.NoError(t, remove("t2"))
	require.Len(t, staff.assignments, 1)

	assert.ErrorIs(t, remove("t1"), appErrors.ErrTeacherInCharge)
	assert.ErrorIs(t, remove("t2"), appErrors.ErrInsufficientTeachers)
	assert.Len(t, staff.assignments, 1)
}

func TestSubjectServiceRemoveTeachersRollsBackBatch(t *testing.T) {
	svc, _, staff, _ := newSubjectFixture()
	ctx := context.Background()
	require.NoError(t, svc.AddTeachers(ctx, "math", models.SubjectTeachersRequest{TeacherIDs: []string{"t3"}}))

	err := svc.RemoveTeachers(ctx, "math", models.SubjectTeachersRequest{TeacherIDs: []string{"t3", "t9"}})
	assert.ErrorIs(t, err, appErrors.ErrInvalidID)
	assert.Len(t, staff.assignments, 3)

	err = svc.RemoveTeachers(ctx, "unknown", models.SubjectTeachersRequest{TeacherIDs: []string{"t3"}})
	assert.ErrorIs(t, err, appErrors.ErrInvalidID)
}

func TestSubjectServiceAddTeachersUnknownTeacher(t *testing.T) {
	svc, _, staff, _ := newSubjectFixture()
	err := svc.AddTeachers(context.Background(), "math", models.SubjectTeachersRequest{TeacherIDs: []string{"t3", "ghost"}})
	assert.ErrorIs(t, err, appErrors.ErrInvalidID)
	assert.Len(t, staff.assignments, 2)
}

func TestSubjectServiceGetAggregatesDetail(t *testing.T) {
	svc, _, _, _ := newSubjectFixture()
	detail, err := svc.Get(context.Background(), "math")
	require.NoError(t, err)
	assert.Equal(t, "L1", detail.ClassName)
	assert.Len(t, detail.Teachers, 2)
	assert.Equal(t, []int{1, 2}, detail.Groups)
	assert.InDelta(t, 1.5, detail.TotalHours, 0.0001)

	_, err = svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, appErrors.ErrInvalidID)
}

func TestSubjectServiceCreateAndUpdate(t *testing.T) {
	svc, repo, _, cache := newSubjectFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CreateSubjectRequest{Name: "Physics", ClassID: "c9", TeacherInChargeID: "t1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidID)

	created, err := svc.Create(ctx, models.CreateSubjectRequest{Name: " Physics ", ClassID: "c1", TeacherInChargeID: "t3"})
	require.NoError(t, err)
	assert.Equal(t, "Physics", created.Name)
	assert.Equal(t, "t3", repo.inCharge[created.ID])

	updated, err := svc.Update(ctx, "math", models.UpdateSubjectRequest{ClassID: strPtr("c2"), TeacherInChargeID: strPtr("t2")})
	require.NoError(t, err)
	assert.Equal(t, "c2", updated.ClassID)
	assert.Equal(t, "t2", repo.inCharge["math"])
	assert.Equal(t, [][2]string{{"c1", "c2"}}, repo.moves)
	assert.Equal(t, []string{OccupancyListingPattern}, cache.patterns)
}

func TestSubjectServiceUpdateRejectsClassMoveOverlappingTimetable(t *testing.T) {
	svc, repo, _, cache := newSubjectFixture()
	repo.clashes = map[string]string{"c2": "occ-9"}

	_, err := svc.Update(context.Background(), "math", models.UpdateSubjectRequest{ClassID: strPtr("c2")})
	assert.ErrorIs(t, err, appErrors.ErrClassOrGroupAlreadyOccupied)
	assert.Contains(t, err.Error(), "occ-9")
	assert.Equal(t, "c1", repo.subjects["math"].ClassID)
	assert.Empty(t, repo.moves)
	assert.Empty(t, cache.patterns)

	renamed, err := svc.Update(context.Background(), "math", models.UpdateSubjectRequest{Name: strPtr("Analysis")})
	require.NoError(t, err)
	assert.Equal(t, "Analysis", renamed.Name)
	assert.Empty(t, repo.moves)
}

func TestSubjectServiceDeleteBatch(t *testing.T) {
	svc, repo, _, _ := newSubjectFixture()
	err := svc.Delete(context.Background(), []string{"math", "missing"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidID)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), []string{"math"}))
	assert.Equal(t, []string{"math"}, repo.deleted)
}

func TestTeacherRemovalGuardOrder(t *testing.T) {
	single := []models.SubjectTeacher{{TeacherID: "t1", InCharge: true}}
	pair := append(single, models.SubjectTeacher{TeacherID: "t2"})

	assert.ErrorIs(t, TeacherRemovalGuard(single, "t1"), appErrors.ErrTeacherInCharge)
	assert.ErrorIs(t, TeacherRemovalGuard(single, "t2"), appErrors.ErrInsufficientTeachers)
	assert.ErrorIs(t, TeacherRemovalGuard(pair, "t9"), appErrors.ErrInvalidID)
	assert.NoError(t, TeacherRemovalGuard(pair, "t2"))
}
