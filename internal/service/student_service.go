package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/scolendar-api/internal/models"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindDetail(ctx context.Context, id string) (*models.StudentDetail, error)
	Subjects(ctx context.Context, id string) ([]models.Subject, error)
	ScheduledSeconds(ctx context.Context, id string) (int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	DeleteBatch(ctx context.Context, ids []string) error
}

// StudentService manages student enrolment in classes and groups.
type StudentService struct {
	repo      studentRepository
	classes   classReader
	cache     listingInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService. cache may be nil.
func NewStudentService(repo studentRepository, classes classReader, cache listingInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, cache: cache, validator: validate, logger: logger}
}

// List returns students plus pagination data.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a student with the subjects of their class and the hours they attend.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	subjects, err := s.repo.Subjects(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student subjects")
	}
	seconds, err := s.repo.ScheduledSeconds(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student hours")
	}
	detail.Subjects = subjects
	if detail.Subjects == nil {
		detail.Subjects = []models.Subject{}
	}
	detail.TotalHours = float64(seconds) / 3600
	return detail, nil
}

// Subjects lists the subjects taught to the student's class.
func (s *StudentService) Subjects(ctx context.Context, id string) ([]models.Subject, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	subjects, err := s.repo.Subjects(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student subjects")
	}
	return subjects, nil
}

// Create enrols a student. Names are normalized like teacher names.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	}

	student := &models.Student{
		FirstName:   NormalizeFirstName(req.FirstName),
		LastName:    NormalizeLastName(req.LastName),
		Email:       email,
		ClassID:     req.ClassID,
		GroupNumber: req.GroupNumber,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("class_id", student.ClassID))
	return student, nil
}

// Update patches names, class or group. Moving to another class without
// naming a group drops the student back to whole-class sessions.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if req.FirstName != nil {
		student.FirstName = NormalizeFirstName(*req.FirstName)
	}
	if req.LastName != nil {
		student.LastName = NormalizeLastName(*req.LastName)
	}
	if req.ClassID != nil && *req.ClassID != student.ClassID {
		if _, err := s.classes.FindByID(ctx, *req.ClassID); err != nil {
			return nil, notFoundOr(err, "class not found", "failed to load class")
		}
		student.ClassID = *req.ClassID
		student.GroupNumber = 0
	}
	if req.GroupNumber != nil {
		student.GroupNumber = *req.GroupNumber
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, notFoundOr(err, "student not found", "failed to update student")
	}
	s.invalidate(ctx)
	return student, nil
}

// Delete removes every student in ids or none.
func (s *StudentService) Delete(ctx context.Context, ids []string) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one student id is required")
	}
	if err := s.repo.DeleteBatch(ctx, ids); err != nil {
		return batchError(err, "student", "failed to delete students")
	}
	s.invalidate(ctx)
	s.logger.Info("students deleted", zap.Strings("student_ids", ids))
	return nil
}

// invalidate drops cached student timetables, which depend on class and group.
func (s *StudentService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, OccupancyListingPattern)
	}
}
