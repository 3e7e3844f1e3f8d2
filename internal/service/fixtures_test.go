package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/internal/scheduling"
)

var monday = time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)

func hour(h, m int) int64 {
	return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute).Unix()
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

// memoryStore keeps occupancies in memory behind a scheduling.MemoryIndex.
type memoryStore struct {
	*scheduling.MemoryIndex
	mu          sync.Mutex
	items       map[string]models.Occupancy
	seq         int
	clock       time.Time
	serialized  [][]string
	onSerialize func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		MemoryIndex: scheduling.NewMemoryIndex(),
		items:       make(map[string]models.Occupancy),
		clock:       monday,
	}
}

func (s *memoryStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memoryStore) FindByID(ctx context.Context, id string) (*models.Occupancy, error) {
	o, ok := s.items[id]
	if !ok || o.Deleted {
		return nil, sql.ErrNoRows
	}
	return &o, nil
}

func (s *memoryStore) FindManyByID(ctx context.Context, ids []string) ([]models.Occupancy, error) {
	out := make([]models.Occupancy, 0, len(ids))
	for _, id := range ids {
		if o, ok := s.items[id]; ok && !o.Deleted {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memoryStore) Serialize(ctx context.Context, keys []string, fn func(store scheduling.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serialized = append(s.serialized, keys)
	if s.onSerialize != nil {
		s.onSerialize()
	}
	return fn(s)
}

func (s *memoryStore) Create(ctx context.Context, o *models.Occupancy) error {
	s.seq++
	o.ID = fmt.Sprintf("occ-%d", s.seq)
	o.CreatedAt = s.tick()
	o.UpdatedAt = o.CreatedAt
	s.items[o.ID] = *o
	s.MemoryIndex.Add(*o)
	return nil
}

func (s *memoryStore) Update(ctx context.Context, o *models.Occupancy) error {
	o.UpdatedAt = s.tick()
	s.items[o.ID] = *o
	s.MemoryIndex.Remove(o.ID)
	s.MemoryIndex.Add(*o)
	return nil
}

func (s *memoryStore) SoftDelete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		o := s.items[id]
		o.Deleted = true
		s.items[id] = o
		s.MemoryIndex.Remove(id)
	}
	return nil
}

// List returns live occupancies of a classroom, or all of them.
func (s *memoryStore) List(ctx context.Context, filter models.OccupancyFilter) ([]models.OccupancyDetail, error) {
	out := make([]models.OccupancyDetail, 0)
	for _, o := range s.items {
		if o.Deleted {
			continue
		}
		if filter.Resource == models.OccupancyResourceClassroom && o.ClassroomID != filter.ResourceID {
			continue
		}
		out = append(out, models.OccupancyDetail{Occupancy: o, ClassroomName: strPtr("Room " + o.ClassroomID)})
	}
	return out, nil
}

type classroomStub map[string]models.Classroom

func (s classroomStub) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	if c, ok := s[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type subjectStub map[string]models.Subject

func (s subjectStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if v, ok := s[id]; ok {
		return &v, nil
	}
	return nil, sql.ErrNoRows
}

type teacherStub map[string]models.Teacher

func (s teacherStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if v, ok := s[id]; ok {
		return &v, nil
	}
	return nil, sql.ErrNoRows
}

type classStub map[string]models.Class

func (s classStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if v, ok := s[id]; ok {
		return &v, nil
	}
	return nil, sql.ErrNoRows
}

type assignmentStub []models.SubjectTeacher

func (s assignmentStub) Find(ctx context.Context, subjectID, teacherID string) (*models.SubjectTeacher, error) {
	for _, a := range s {
		if a.SubjectID == subjectID && a.TeacherID == teacherID {
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s assignmentStub) FindInCharge(ctx context.Context, subjectID string) (*models.SubjectTeacher, error) {
	for _, a := range s {
		if a.SubjectID == subjectID && a.InCharge {
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

type invalidationSpy struct {
	patterns []string
}

func (s *invalidationSpy) Invalidate(ctx context.Context, pattern string) {
	s.patterns = append(s.patterns, pattern)
}

type mutationSpy struct {
	counts map[string]int
}

func (s *mutationSpy) RecordMutation(operation string, count int) {
	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	s.counts[operation] += count
}

type occupancyFixture struct {
	store     *memoryStore
	cache     *invalidationSpy
	mutations *mutationSpy
	svc       *OccupancyService
	query     *OccupancyQueryService
}

var (
	admin      = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	teacherOne = models.Actor{UserID: "t1", Role: models.RoleTeacher}
	teacherTwo = models.Actor{UserID: "t2", Role: models.RoleTeacher}
	outsider   = models.Actor{UserID: "t3", Role: models.RoleTeacher}
)

// newOccupancyFixture seeds rooms a, b and c, class c1 with subject math
// taught by t1 (in charge) and t2, and a third teacher t3 outside math.
func newOccupancyFixture(t *testing.T) *occupancyFixture {
	t.Helper()
	types, err := models.NewOccupancyTypeTable([]string{"cm", "td", "tp", "exam", "other"}, []string{"td", "tp"})
	require.NoError(t, err)

	store := newMemoryStore()
	classrooms := classroomStub{"a": {ID: "a", Name: "A"}, "b": {ID: "b", Name: "B"}, "c": {ID: "c", Name: "C"}}
	subjects := subjectStub{"math": {ID: "math", Name: "Math", ClassID: "c1"}}
	teachers := teacherStub{"t1": {ID: "t1"}, "t2": {ID: "t2"}, "t3": {ID: "t3"}}
	classes := classStub{"c1": {ID: "c1", Name: "L1"}}
	assignments := assignmentStub{
		{SubjectID: "math", TeacherID: "t1", InCharge: true},
		{SubjectID: "math", TeacherID: "t2"},
	}
	cache := &invalidationSpy{}
	mutations := &mutationSpy{}

	svc := NewOccupancyService(OccupancyDeps{
		Store:       store,
		Classrooms:  classrooms,
		Subjects:    subjects,
		Teachers:    teachers,
		Assignments: assignments,
		Types:       types,
		Cache:       cache,
		Metrics:     mutations,
	}, nil, nil)
	query := NewOccupancyQueryService(OccupancyQueryDeps{
		Occupancies: store,
		Classrooms:  classrooms,
		Subjects:    subjects,
		Classes:     classes,
		Teachers:    teachers,
	}, nil)

	return &occupancyFixture{store: store, cache: cache, mutations: mutations, svc: svc, query: query}
}

func booking(classroom string, start, end int64) models.CreateOccupancyRequest {
	return models.CreateOccupancyRequest{
		ClassroomID:   classroom,
		Start:         start,
		End:           end,
		Name:          "Lecture",
		OccupancyType: "cm",
	}
}

func mathBooking(classroom string, group int, start, end int64) models.CreateOccupancyRequest {
	req := booking(classroom, start, end)
	req.SubjectID = strPtr("math")
	req.GroupNumber = group
	if group > 0 {
		req.OccupancyType = "td"
	}
	return req
}
