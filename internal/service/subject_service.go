package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/internal/repository"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindDetail(ctx context.Context, id string) (*models.SubjectDetail, error)
	Create(ctx context.Context, subject *models.Subject, inChargeID string) error
	Update(ctx context.Context, subject *models.Subject, previousClassID string, inChargeID *string) error
	DeleteBatch(ctx context.Context, ids []string) error
}

type subjectTeacherRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.SubjectTeacherDetail, error)
	AddBatch(ctx context.Context, subjectID string, teacherIDs []string) error
	RemoveBatch(ctx context.Context, subjectID string, teacherIDs []string, guard repository.RemovalGuard) error
}

type subjectScheduleStats interface {
	GroupsBySubject(ctx context.Context, subjectID string) ([]int, error)
	ScheduledSecondsBySubject(ctx context.Context, subjectID string) (int64, error)
}

// SubjectService manages subjects and their teaching staff.
type SubjectService struct {
	repo      subjectRepository
	teachers  subjectTeacherRepository
	stats     subjectScheduleStats
	classes   classReader
	directory teacherReader
	cache     listingInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService. cache may be nil.
func NewSubjectService(
	repo subjectRepository,
	teachers subjectTeacherRepository,
	stats subjectScheduleStats,
	classes classReader,
	directory teacherReader,
	cache listingInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{
		repo:      repo,
		teachers:  teachers,
		stats:     stats,
		classes:   classes,
		directory: directory,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns subjects with pagination.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a subject with its teachers, the groups it schedules and its booked hours.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.SubjectDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "subject not found", "failed to load subject")
	}
	teachers, err := s.teachers.ListBySubject(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject teachers")
	}
	groups, err := s.stats.GroupsBySubject(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject groups")
	}
	seconds, err := s.stats.ScheduledSecondsBySubject(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject hours")
	}

	detail.Teachers = teachers
	if detail.Teachers == nil {
		detail.Teachers = []models.SubjectTeacherDetail{}
	}
	detail.Groups = groups
	if detail.Groups == nil {
		detail.Groups = []int{}
	}
	detail.TotalHours = float64(seconds) / 3600
	return detail, nil
}

// Create stores a subject for a class and assigns its teacher in charge.
func (s *SubjectService) Create(ctx context.Context, req models.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if _, err := s.directory.FindByID(ctx, req.TeacherInChargeID); err != nil {
		return nil, notFoundOr(err, "teacher not found", "failed to load teacher")
	}

	subject := &models.Subject{Name: strings.TrimSpace(req.Name), ClassID: req.ClassID}
	if err := s.repo.Create(ctx, subject, req.TeacherInChargeID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.logger.Info("subject created", zap.String("subject_id", subject.ID), zap.String("class_id", subject.ClassID))
	return subject, nil
}

// Update patches name, class and teacher in charge.
func (s *SubjectService) Update(ctx context.Context, id string, req models.UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "subject not found", "failed to load subject")
	}
	previousClassID := subject.ClassID
	if req.Name != nil {
		subject.Name = strings.TrimSpace(*req.Name)
	}
	if req.ClassID != nil && *req.ClassID != subject.ClassID {
		if _, err := s.classes.FindByID(ctx, *req.ClassID); err != nil {
			return nil, notFoundOr(err, "class not found", "failed to load class")
		}
		subject.ClassID = *req.ClassID
	}
	if req.TeacherInChargeID != nil {
		if _, err := s.directory.FindByID(ctx, *req.TeacherInChargeID); err != nil {
			return nil, notFoundOr(err, "teacher not found", "failed to load teacher")
		}
	}
	if err := s.repo.Update(ctx, subject, previousClassID, req.TeacherInChargeID); err != nil {
		return nil, subjectUpdateError(err)
	}
	s.invalidate(ctx)
	return subject, nil
}

func subjectUpdateError(err error) error {
	var item *repository.ItemError
	switch {
	case errors.As(err, &item) && errors.Is(item.Err, repository.ErrClassTimetableClash):
		return appErrors.Clone(appErrors.ErrClassOrGroupAlreadyOccupied, "subject occupancies overlap occupancy "+item.ID+" of the target class")
	case errors.Is(err, repository.ErrStaleRead):
		return appErrors.Clone(appErrors.ErrConcurrentModification, "subject class changed concurrently")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrInvalidID, "subject not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
}

// Delete soft-deletes every subject in ids or none, retiring their occupancies.
func (s *SubjectService) Delete(ctx context.Context, ids []string) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one subject id is required")
	}
	if err := s.repo.DeleteBatch(ctx, ids); err != nil {
		return batchError(err, "subject", "failed to delete subjects")
	}
	s.invalidate(ctx)
	s.logger.Info("subjects deleted", zap.Strings("subject_ids", ids))
	return nil
}

// AddTeachers assigns teachers to a subject, all or none.
func (s *SubjectService) AddTeachers(ctx context.Context, subjectID string, req models.SubjectTeachersRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher list")
	}
	if _, err := s.repo.FindByID(ctx, subjectID); err != nil {
		return notFoundOr(err, "subject not found", "failed to load subject")
	}
	if err := s.teachers.AddBatch(ctx, subjectID, uniqueIDs(req.TeacherIDs)); err != nil {
		return batchError(err, "teacher", "failed to assign teachers")
	}
	return nil
}

// RemoveTeachers unassigns teachers from a subject, all or none. The teacher
// in charge cannot leave and a subject always keeps one teacher.
func (s *SubjectService) RemoveTeachers(ctx context.Context, subjectID string, req models.SubjectTeachersRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher list")
	}
	if _, err := s.repo.FindByID(ctx, subjectID); err != nil {
		return notFoundOr(err, "subject not found", "failed to load subject")
	}
	err := s.teachers.RemoveBatch(ctx, subjectID, uniqueIDs(req.TeacherIDs), TeacherRemovalGuard)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign teachers")
	}
	return nil
}

// TeacherRemovalGuard checks, in order: the teacher is not in charge, at
// least two teachers remain, the teacher is assigned.
func TeacherRemovalGuard(current []models.SubjectTeacher, teacherID string) error {
	var assigned *models.SubjectTeacher
	for i := range current {
		if current[i].TeacherID == teacherID {
			assigned = &current[i]
			break
		}
	}
	if assigned != nil && assigned.InCharge {
		return appErrors.Clone(appErrors.ErrTeacherInCharge, "")
	}
	if len(current) < 2 {
		return appErrors.Clone(appErrors.ErrInsufficientTeachers, "")
	}
	if assigned == nil {
		return appErrors.Clone(appErrors.ErrInvalidID, "teacher "+teacherID+" does not teach this subject")
	}
	return nil
}

func (s *SubjectService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, OccupancyListingPattern)
	}
}
