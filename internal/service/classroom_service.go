package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/scolendar-api/internal/models"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
)

const minClassroomSearch = 3

type classroomRepository interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	UpdateName(ctx context.Context, classroom *models.Classroom) error
	DeleteBatch(ctx context.Context, ids []string) error
}

// ClassroomService manages bookable rooms.
type ClassroomService struct {
	repo      classroomRepository
	cache     listingInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassroomService constructs a ClassroomService. cache may be nil.
func NewClassroomService(repo classroomRepository, cache listingInvalidator, validate *validator.Validate, logger *zap.Logger) *ClassroomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns classrooms. Searches shorter than three characters are ignored.
func (s *ClassroomService) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, *models.Pagination, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if utf8.RuneCountInString(filter.Search) < minClassroomSearch {
		filter.Search = ""
	}
	classrooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	return classrooms, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a classroom by id.
func (s *ClassroomService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	classroom, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "classroom not found", "failed to load classroom")
	}
	return classroom, nil
}

// Create registers a classroom with a unique name.
func (s *ClassroomService) Create(ctx context.Context, req models.CreateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureUniqueName(ctx, name, ""); err != nil {
		return nil, err
	}
	classroom := &models.Classroom{Name: name, Capacity: req.Capacity}
	if err := s.repo.Create(ctx, classroom); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}
	s.logger.Info("classroom created", zap.String("classroom_id", classroom.ID))
	return classroom, nil
}

// Rename changes the classroom name. Capacity is fixed at creation.
func (s *ClassroomService) Rename(ctx context.Context, id string, req models.UpdateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	classroom, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == classroom.Name {
		return classroom, nil
	}
	if err := s.ensureUniqueName(ctx, name, id); err != nil {
		return nil, err
	}
	classroom.Name = name
	if err := s.repo.UpdateName(ctx, classroom); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update classroom")
	}
	s.invalidate(ctx)
	return classroom, nil
}

// Delete removes every classroom in ids or none. A classroom still used by a
// live occupancy fails the whole batch with ClassroomUsed.
func (s *ClassroomService) Delete(ctx context.Context, ids []string) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one classroom id is required")
	}
	if err := s.repo.DeleteBatch(ctx, ids); err != nil {
		return batchError(err, "classroom", "failed to delete classrooms")
	}
	s.invalidate(ctx)
	s.logger.Info("classrooms deleted", zap.Strings("classroom_ids", ids))
	return nil
}

func (s *ClassroomService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check classroom name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "classroom name already exists")
	}
	return nil
}

func (s *ClassroomService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, OccupancyListingPattern)
	}
}
