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

type classroomRepoStub struct {
	items      map[string]models.Classroom
	used       map[string]bool
	lastFilter models.ClassroomFilter
}

func (s *classroomRepoStub) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error) {
	s.lastFilter = filter
	out := make([]models.Classroom, 0, len(s.items))
	for _, c := range s.items {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (s *classroomRepoStub) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	c, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *classroomRepoStub) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for id, c := range s.items {
		if c.Name == name && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *classroomRepoStub) Create(ctx context.Context, classroom *models.Classroom) error {
	classroom.ID = "room-" + classroom.Name
	s.items[classroom.ID] = *classroom
	return nil
}

func (s *classroomRepoStub) UpdateName(ctx context.Context, classroom *models.Classroom) error {
	s.items[classroom.ID] = *classroom
	return nil
}

func (s *classroomRepoStub) DeleteBatch(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, ok := s.items[id]; !ok {
			return &repository.ItemError{ID: id, Err: sql.ErrNoRows}
		}
		if s.used[id] {
			return &repository.ItemError{ID: id, Err: repository.ErrReferenced}
		}
	}
	for _, id := range ids {
		delete(s.items, id)
	}
	return nil
}

func newClassroomFixture() (*ClassroomService, *classroomRepoStub, *invalidationSpy) {
	repo := &classroomRepoStub{
		items: map[string]models.Classroom{
			"a": {ID: "a", Name: "Amphi A", Capacity: 200},
			"b": {ID: "b", Name: "B12", Capacity: 30},
		},
		used: map[string]bool{"a": true},
	}
	cache := &invalidationSpy{}
	return NewClassroomService(repo, cache, nil, nil), repo, cache
}

func TestClassroomServiceSearchNeedsThreeCharacters(t *testing.T) {
	svc, repo, _ := newClassroomFixture()
	ctx := context.Background()

	_, pagination, err := svc.List(ctx, models.ClassroomFilter{Search: " am "})
	require.NoError(t, err)
	assert.Empty(t, repo.lastFilter.Search)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, defaultPageSize, pagination.PageSize)

	_, _, err = svc.List(ctx, models.ClassroomFilter{Search: "amp"})
	require.NoError(t, err)
	assert.Equal(t, "amp", repo.lastFilter.Search)
}

func TestClassroomServiceCreateAndRename(t *testing.T) {
	svc, repo, cache := newClassroomFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CreateClassroomRequest{Name: "B12", Capacity: 20})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(ctx, models.CreateClassroomRequest{Name: "C1", Capacity: 0})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	created, err := svc.Create(ctx, models.CreateClassroomRequest{Name: "C1", Capacity: 24})
	require.NoError(t, err)
	assert.Equal(t, 24, created.Capacity)

	renamed, err := svc.Rename(ctx, "b", models.UpdateClassroomRequest{Name: "B13"})
	require.NoError(t, err)
	assert.Equal(t, "B13", renamed.Name)
	assert.Equal(t, 30, repo.items["b"].Capacity)
	assert.Equal(t, []string{OccupancyListingPattern}, cache.patterns)

	_, err = svc.Rename(ctx, "b", models.UpdateClassroomRequest{Name: "Amphi A"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestClassroomServiceDeleteBatch(t *testing.T) {
	svc, repo, _ := newClassroomFixture()
	ctx := context.Background()

	err := svc.Delete(ctx, []string{"b", "a"})
	assert.ErrorIs(t, err, appErrors.ErrClassroomUsed)
	assert.Contains(t, repo.items, "b")

	err = svc.Delete(ctx, []string{"zz"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidID)

	err = svc.Delete(ctx, nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	require.NoError(t, svc.Delete(ctx, []string{"b"}))
	assert.NotContains(t, repo.items, "b")
}

type teacherRepoStub struct {
	created []models.Teacher
	emails  map[string]bool
}

func (s *teacherRepoStub) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	return s.created, len(s.created), nil
}

func (s *teacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	for _, t := range s.created {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *teacherRepoStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.emails[email], nil
}

func (s *teacherRepoStub) Create(ctx context.Context, teacher *models.Teacher) error {
	teacher.ID = "t-new"
	s.created = append(s.created, *teacher)
	return nil
}

func TestTeacherServiceCreateNormalisesIdentity(t *testing.T) {
	repo := &teacherRepoStub{emails: map[string]bool{"taken@school.fr": true}}
	svc := NewTeacherService(repo, nil, nil)
	ctx := context.Background()

	teacher, err := svc.Create(ctx, models.CreateTeacherRequest{
		FirstName:   "  marie   claire ",
		LastName:    "dupont",
		Email:       "Marie.Dupont@School.fr",
		PhoneNumber: "06.12.34.56.78",
		Rank:        "MCF",
	})
	require.NoError(t, err)
	assert.Equal(t, "Marie Claire", teacher.FirstName)
	assert.Equal(t, "DUPONT", teacher.LastName)
	assert.Equal(t, "marie.dupont@school.fr", teacher.Email)
	assert.Equal(t, "06 12 34 56 78", teacher.PhoneNumber)
	assert.Equal(t, "Marie Claire DUPONT", teacher.FullName())

	_, err = svc.Create(ctx, models.CreateTeacherRequest{FirstName: "a", LastName: "b", Email: "taken@school.fr", PhoneNumber: "0102"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrInvalidID)
}

func TestNormalizePhoneKeepsInternationalPrefix(t *testing.T) {
	assert.Equal(t, "+33 61 23 45 67 8", NormalizePhone("+33 6 12 34 56 78"))
	assert.Equal(t, "", NormalizePhone("  "))
}

type classRepoStub struct {
	items []models.Class
}

func (s *classRepoStub) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	return s.items, len(s.items), nil
}

func (s *classRepoStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	for _, c := range s.items {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *classRepoStub) Create(ctx context.Context, class *models.Class) error {
	class.ID = "c-new"
	s.items = append(s.items, *class)
	return nil
}

func TestClassServiceCreateAndList(t *testing.T) {
	repo := &classRepoStub{}
	svc := NewClassService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CreateClassRequest{Name: "L1 Info"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	class, err := svc.Create(ctx, models.CreateClassRequest{Name: " L1 Info ", Level: "L1"})
	require.NoError(t, err)
	assert.Equal(t, "L1 Info", class.Name)

	classes, pagination, err := svc.List(ctx, models.ClassFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, classes, 1)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 1, pagination.TotalCount)
}
