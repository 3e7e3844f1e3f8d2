package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/internal/scheduling"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
	applog "github.com/noah-isme/scolendar-api/pkg/logger"
)

// OccupancyListingPattern matches every cached occupancy listing.
const OccupancyListingPattern = "occupancies:*"

type occupancyStore interface {
	scheduling.Index
	FindByID(ctx context.Context, id string) (*models.Occupancy, error)
	FindManyByID(ctx context.Context, ids []string) ([]models.Occupancy, error)
	Serialize(ctx context.Context, keys []string, fn func(store scheduling.Store) error) error
}

type classroomReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type assignmentReader interface {
	Find(ctx context.Context, subjectID, teacherID string) (*models.SubjectTeacher, error)
	FindInCharge(ctx context.Context, subjectID string) (*models.SubjectTeacher, error)
}

type listingInvalidator interface {
	Invalidate(ctx context.Context, pattern string)
}

type mutationMetrics interface {
	RecordMutation(operation string, count int)
}

// OccupancyDeps groups the collaborators of OccupancyService.
type OccupancyDeps struct {
	Store       occupancyStore
	Classrooms  classroomReader
	Subjects    subjectReader
	Teachers    teacherReader
	Assignments assignmentReader
	Checker     *scheduling.Checker
	Types       models.OccupancyTypeTable
	Cache       listingInvalidator
	Metrics     mutationMetrics
}

// OccupancyService creates, moves and retires occupancies. Every check-then-write
// runs inside one serialized transaction per affected resource set.
type OccupancyService struct {
	deps      OccupancyDeps
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOccupancyService constructs an OccupancyService.
func NewOccupancyService(deps OccupancyDeps, validate *validator.Validate, logger *zap.Logger) *OccupancyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Checker == nil {
		deps.Checker = scheduling.NewChecker(deps.Store, nil)
	}
	return &OccupancyService{deps: deps, validator: validate, logger: logger}
}

// Create books a new occupancy.
func (s *OccupancyService) Create(ctx context.Context, actor models.Actor, req models.CreateOccupancyRequest) (*models.Occupancy, error) {
	occupancy, err := s.prepare(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	draft := occupancy.Draft()
	err = s.deps.Store.Serialize(ctx, scheduling.LockKeys(draft), func(store scheduling.Store) error {
		if err := s.deps.Checker.WithIndex(store).Ensure(ctx, draft); err != nil {
			return err
		}
		return store.Create(ctx, occupancy)
	})
	if err != nil {
		return nil, s.translate(err, "failed to create occupancy")
	}

	s.committed(ctx, "create", 1)
	applog.WithRequest(ctx, s.logger).Info("occupancy created",
		zap.String("occupancy_id", occupancy.ID),
		zap.String("classroom_id", occupancy.ClassroomID),
		zap.String("actor_id", actor.UserID),
		zap.Time("start", occupancy.Start),
		zap.Int64("duration_seconds", occupancy.DurationSeconds),
	)
	return occupancy, nil
}

// Update patches classroom, time and name. A new start alone keeps the
// duration; a new end recomputes it from the (possibly new) start.
func (s *OccupancyService) Update(ctx context.Context, actor models.Actor, id string, req models.UpdateOccupancyRequest) (*models.Occupancy, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid occupancy payload")
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, *current); err != nil {
		return nil, err
	}

	patched := *current
	if req.ClassroomID != nil && *req.ClassroomID != current.ClassroomID {
		if _, err := s.classroom(ctx, *req.ClassroomID); err != nil {
			return nil, err
		}
		patched.ClassroomID = *req.ClassroomID
	}
	if req.Start != nil {
		patched.Start = time.Unix(*req.Start, 0).UTC()
	}
	if req.End != nil {
		end := time.Unix(*req.End, 0).UTC()
		if !end.After(patched.Start) {
			return nil, appErrors.Clone(appErrors.ErrEndBeforeStart, "")
		}
		patched.DurationSeconds = int64(end.Sub(patched.Start) / time.Second)
	}
	if req.Name != nil {
		patched.Name = *req.Name
	}
	moved := patched.ClassroomID != current.ClassroomID ||
		!patched.Start.Equal(current.Start) ||
		patched.DurationSeconds != current.DurationSeconds

	keys := scheduling.LockKeys(current.Draft(), patched.Draft())
	err = s.deps.Store.Serialize(ctx, keys, func(store scheduling.Store) error {
		fresh, err := store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !fresh.UpdatedAt.Equal(current.UpdatedAt) {
			return appErrors.Clone(appErrors.ErrConcurrentModification, "occupancy changed while being updated")
		}
		if moved {
			if err := s.deps.Checker.WithIndex(store).Ensure(ctx, patched.Draft()); err != nil {
				return err
			}
		}
		return store.Update(ctx, &patched)
	})
	if err != nil {
		return nil, s.translate(err, "failed to update occupancy")
	}

	s.committed(ctx, "update", 1)
	applog.WithRequest(ctx, s.logger).Info("occupancy updated", zap.String("occupancy_id", id), zap.String("actor_id", actor.UserID), zap.Bool("moved", moved))
	return &patched, nil
}

// Delete soft-deletes every occupancy in ids or none of them. Unknown or
// already deleted ids fail with InvalidID.
func (s *OccupancyService) Delete(ctx context.Context, actor models.Actor, ids []string) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one occupancy id is required")
	}

	found, err := s.deps.Store.FindManyByID(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupancies")
	}
	byID := make(map[string]models.Occupancy, len(found))
	for _, occupancy := range found {
		byID[occupancy.ID] = occupancy
	}
	drafts := make([]models.OccupancyDraft, 0, len(ids))
	for _, id := range ids {
		occupancy, ok := byID[id]
		if !ok {
			return appErrors.Clone(appErrors.ErrInvalidID, fmt.Sprintf("occupancy %s not found", id))
		}
		if err := s.authorize(ctx, actor, occupancy); err != nil {
			return err
		}
		drafts = append(drafts, occupancy.Draft())
	}

	err = s.deps.Store.Serialize(ctx, scheduling.LockKeys(drafts...), func(store scheduling.Store) error {
		for _, id := range ids {
			if _, err := store.FindByID(ctx, id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrInvalidID, fmt.Sprintf("occupancy %s not found", id))
				}
				return err
			}
		}
		return store.SoftDelete(ctx, ids)
	})
	if err != nil {
		return s.translate(err, "failed to delete occupancies")
	}

	s.committed(ctx, "delete", len(ids))
	applog.WithRequest(ctx, s.logger).Info("occupancies deleted", zap.Strings("occupancy_ids", ids), zap.String("actor_id", actor.UserID))
	return nil
}

// Check previews a booking without writing anything.
func (s *OccupancyService) Check(ctx context.Context, actor models.Actor, req models.CreateOccupancyRequest) (*models.CheckResult, error) {
	occupancy, err := s.prepare(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	result, err := s.deps.Checker.Check(ctx, occupancy.Draft())
	if err != nil {
		return nil, s.translate(err, "failed to check occupancy")
	}
	out := result.CheckResult()
	return &out, nil
}

// CheckBatch previews several bookings together. Each draft is checked against
// storage and against the drafts accepted before it in the batch.
func (s *OccupancyService) CheckBatch(ctx context.Context, actor models.Actor, req models.CheckBatchRequest) ([]models.CheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid occupancy batch")
	}

	pending := scheduling.NewMemoryIndex()
	checker := s.deps.Checker.WithIndex(scheduling.Overlay(s.deps.Store, pending))
	results := make([]models.CheckResult, 0, len(req.Occupancies))
	for _, item := range req.Occupancies {
		occupancy, err := s.prepare(ctx, actor, item)
		if err != nil {
			if rejected, ok := asRejection(err); ok {
				results = append(results, rejected)
				continue
			}
			return nil, err
		}
		result, err := checker.Check(ctx, occupancy.Draft())
		if err != nil {
			return nil, s.translate(err, "failed to check occupancy")
		}
		if result.Clear() {
			occupancy.ID = uuid.NewString()
			pending.Add(*occupancy)
		}
		results = append(results, result.CheckResult())
	}
	return results, nil
}

// prepare validates a booking request and resolves it into an unsaved occupancy.
func (s *OccupancyService) prepare(ctx context.Context, actor models.Actor, req models.CreateOccupancyRequest) (*models.Occupancy, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid occupancy payload")
	}
	if !actor.Role.IsAdministrator() && !actor.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators and teachers can book occupancies")
	}

	typ := models.OccupancyType(req.OccupancyType)
	target := models.Group(req.GroupNumber)
	if !target.IsWholeClass() && req.SubjectID == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidOccupancyType, "group occupancies require a subject")
	}
	if !s.deps.Types.Allows(typ, target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidOccupancyType, fmt.Sprintf("occupancy type %q is not allowed for %s", typ, target))
	}

	start := time.Unix(req.Start, 0).UTC()
	end := time.Unix(req.End, 0).UTC()
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrEndBeforeStart, "")
	}

	if _, err := s.classroom(ctx, req.ClassroomID); err != nil {
		return nil, err
	}

	var subject *models.Subject
	if req.SubjectID != nil {
		found, err := s.deps.Subjects.FindByID(ctx, *req.SubjectID)
		if err != nil {
			return nil, s.lookupError(err, "subject not found", "failed to load subject")
		}
		subject = found
	}

	teacherID, err := s.resolveTeacher(ctx, actor, subject, req.TeacherID)
	if err != nil {
		return nil, err
	}

	occupancy := &models.Occupancy{
		ClassroomID:     req.ClassroomID,
		SubjectID:       req.SubjectID,
		TeacherID:       teacherID,
		GroupNumber:     target.Number(),
		Start:           start,
		DurationSeconds: int64(end.Sub(start) / time.Second),
		OccupancyType:   typ,
		Name:            req.Name,
	}
	if subject != nil {
		classID := subject.ClassID
		occupancy.ClassID = &classID
	}
	return occupancy, nil
}

// resolveTeacher picks who teaches a booking. Teachers book as themselves;
// administrators may name an assigned teacher or fall back to the one in charge.
func (s *OccupancyService) resolveTeacher(ctx context.Context, actor models.Actor, subject *models.Subject, requested *string) (*string, error) {
	if actor.IsTeacher() {
		if requested != nil && *requested != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers can only book for themselves")
		}
		if subject != nil {
			if err := s.ensureAssigned(ctx, subject.ID, actor.UserID, appErrors.Clone(appErrors.ErrForbidden, "you do not teach this subject")); err != nil {
				return nil, err
			}
		}
		self := actor.UserID
		return &self, nil
	}

	if requested != nil {
		if _, err := s.deps.Teachers.FindByID(ctx, *requested); err != nil {
			return nil, s.lookupError(err, "teacher not found", "failed to load teacher")
		}
		if subject != nil {
			if err := s.ensureAssigned(ctx, subject.ID, *requested, appErrors.Clone(appErrors.ErrTeacherNotInSubject, "")); err != nil {
				return nil, err
			}
		}
		id := *requested
		return &id, nil
	}

	if subject == nil {
		return nil, nil
	}
	inCharge, err := s.deps.Assignments.FindInCharge(ctx, subject.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher in charge")
	}
	id := inCharge.TeacherID
	return &id, nil
}

func (s *OccupancyService) ensureAssigned(ctx context.Context, subjectID, teacherID string, denied error) error {
	if _, err := s.deps.Assignments.Find(ctx, subjectID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return denied
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject teacher")
	}
	return nil
}

// authorize lets administrators touch any occupancy and teachers only those of subjects they teach.
func (s *OccupancyService) authorize(ctx context.Context, actor models.Actor, occupancy models.Occupancy) error {
	if actor.Role.IsAdministrator() {
		return nil
	}
	if !actor.IsTeacher() {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}
	denied := appErrors.Clone(appErrors.ErrForbidden, "you do not teach this occupancy")
	if occupancy.SubjectID == nil {
		if occupancy.TeacherID != nil && *occupancy.TeacherID == actor.UserID {
			return nil
		}
		return denied
	}
	return s.ensureAssigned(ctx, *occupancy.SubjectID, actor.UserID, denied)
}

func (s *OccupancyService) find(ctx context.Context, id string) (*models.Occupancy, error) {
	occupancy, err := s.deps.Store.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "occupancy not found", "failed to load occupancy")
	}
	return occupancy, nil
}

func (s *OccupancyService) classroom(ctx context.Context, id string) (*models.Classroom, error) {
	classroom, err := s.deps.Classrooms.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "classroom not found", "failed to load classroom")
	}
	return classroom, nil
}

func (s *OccupancyService) lookupError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrInvalidID, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

// translate keeps domain errors and wraps anything else as internal.
func (s *OccupancyService) translate(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrInvalidID, "occupancy not found")
	}
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *OccupancyService) committed(ctx context.Context, operation string, count int) {
	if s.deps.Cache != nil {
		s.deps.Cache.Invalidate(ctx, OccupancyListingPattern)
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordMutation(operation, count)
	}
}

// asRejection turns a client-side failure into a negative preview result.
func asRejection(err error) (models.CheckResult, bool) {
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) || appErr.Status >= 500 {
		return models.CheckResult{}, false
	}
	return models.CheckResult{OK: false, Kind: models.ConflictNone, Code: appErr.Code}, true
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
