package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/internal/scheduling"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
)

const occupancyListingPrefix = "occupancies:list:"

type occupancyLister interface {
	List(ctx context.Context, filter models.OccupancyFilter) ([]models.OccupancyDetail, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type listingCache interface {
	Key(prefix string, parts interface{}) string
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// OccupancyQueryDeps groups the collaborators of OccupancyQueryService.
type OccupancyQueryDeps struct {
	Occupancies occupancyLister
	Classrooms  classroomReader
	Subjects    subjectReader
	Classes     classReader
	Teachers    teacherReader
	Students    studentReader
	Assignments assignmentReader
	Cache       listingCache
	CacheTTL    time.Duration
	Location    *time.Location
}

// OccupancyQueryService answers day-bucketed occupancy listings.
type OccupancyQueryService struct {
	deps   OccupancyQueryDeps
	logger *zap.Logger
}

// NewOccupancyQueryService constructs an OccupancyQueryService.
func NewOccupancyQueryService(deps OccupancyQueryDeps, logger *zap.Logger) *OccupancyQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &OccupancyQueryService{deps: deps, logger: logger}
}

// Location returns the zone days are bucketed in.
func (s *OccupancyQueryService) Location() *time.Location {
	return s.deps.Location
}

// List returns the non-deleted occupancies matching filter, grouped by local day.
func (s *OccupancyQueryService) List(ctx context.Context, filter models.OccupancyFilter) ([]models.DayBucket, error) {
	if filter.Resource == "" {
		filter.Resource = models.OccupancyResourceAll
	}
	if filter.PerDayCap < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "occupancies_per_day must not be negative")
	}
	if err := s.ensureResource(ctx, filter); err != nil {
		return nil, err
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return []models.DayBucket{}, nil
	}

	var key string
	if s.deps.Cache != nil {
		key = s.deps.Cache.Key(occupancyListingPrefix, filter)
		var cached []models.DayBucket
		if s.deps.Cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	rows, err := s.deps.Occupancies.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list occupancies", zap.Error(err), zap.String("resource", string(filter.Resource)))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occupancies")
	}
	buckets := scheduling.BucketByDay(rows, s.deps.Location, filter.PerDayCap)

	if s.deps.Cache != nil {
		s.deps.Cache.Set(ctx, key, buckets, s.deps.CacheTTL)
	}
	return buckets, nil
}

// ListAs lists on behalf of actor. Administrators see everything. Teachers see
// their own timetable and those of subjects they are assigned to. Students see
// their own timetable.
func (s *OccupancyQueryService) ListAs(ctx context.Context, actor models.Actor, filter models.OccupancyFilter) ([]models.DayBucket, error) {
	if err := s.authorize(ctx, actor, filter); err != nil {
		return nil, err
	}
	return s.List(ctx, filter)
}

func (s *OccupancyQueryService) authorize(ctx context.Context, actor models.Actor, filter models.OccupancyFilter) error {
	if actor.Role.IsAdministrator() {
		return nil
	}
	switch {
	case actor.IsTeacher() && filter.Resource == models.OccupancyResourceTeacher && filter.ResourceID == actor.UserID:
		return nil
	case actor.IsStudent() && filter.Resource == models.OccupancyResourceStudent && filter.ResourceID == actor.UserID:
		return nil
	case actor.IsTeacher() && filter.Resource == models.OccupancyResourceSubject:
		if err := s.ensureResource(ctx, filter); err != nil {
			return err
		}
		if s.deps.Assignments == nil {
			return appErrors.Clone(appErrors.ErrForbidden, "")
		}
		if _, err := s.deps.Assignments.Find(ctx, filter.ResourceID, actor.UserID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrForbidden, "you do not teach this subject")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject teacher")
		}
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "")
}

func (s *OccupancyQueryService) ensureResource(ctx context.Context, filter models.OccupancyFilter) error {
	var err error
	switch filter.Resource {
	case models.OccupancyResourceAll:
		return nil
	case models.OccupancyResourceClassroom:
		_, err = s.deps.Classrooms.FindByID(ctx, filter.ResourceID)
	case models.OccupancyResourceSubject:
		_, err = s.deps.Subjects.FindByID(ctx, filter.ResourceID)
	case models.OccupancyResourceClass:
		_, err = s.deps.Classes.FindByID(ctx, filter.ResourceID)
	case models.OccupancyResourceTeacher:
		_, err = s.deps.Teachers.FindByID(ctx, filter.ResourceID)
	case models.OccupancyResourceStudent:
		if s.deps.Students == nil {
			return appErrors.Clone(appErrors.ErrValidation, "student listings are not configured")
		}
		_, err = s.deps.Students.FindByID(ctx, filter.ResourceID)
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown occupancy resource")
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrInvalidID, string(filter.Resource)+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+string(filter.Resource))
}
