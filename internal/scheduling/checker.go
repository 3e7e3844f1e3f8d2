package scheduling

import (
	"context"

	"github.com/noah-isme/scolendar-api/internal/models"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
)

// ConflictRecorder counts detected conflicts by kind.
type ConflictRecorder interface {
	RecordConflict(kind string)
}

// Result is the outcome of a check. Conflict is set when Kind is not ConflictNone.
type Result struct {
	Kind     models.ConflictKind
	Conflict *models.Occupancy
}

// Clear reports whether the draft may be committed.
func (r Result) Clear() bool {
	return r.Kind == "" || r.Kind == models.ConflictNone
}

// Err converts a conflicting result into its domain error, nil when clear.
func (r Result) Err() error {
	var base *appErrors.Error
	switch r.Kind {
	case models.ConflictClassroom:
		base = appErrors.ErrClassroomAlreadyOccupied
	case models.ConflictGroup:
		base = appErrors.ErrClassOrGroupAlreadyOccupied
	case models.ConflictTeacher:
		base = appErrors.ErrTeacherAlreadyOccupied
	default:
		return nil
	}
	domainErr := &models.OccupancyConflictError{Kind: r.Kind}
	if r.Conflict != nil {
		domainErr.Conflict = *r.Conflict
	}
	return appErrors.Wrap(domainErr, base.Code, base.Status, base.Message)
}

// CheckResult renders the outcome for preview responses.
func (r Result) CheckResult() models.CheckResult {
	if r.Clear() {
		return models.CheckResult{OK: true, Kind: models.ConflictNone}
	}
	out := models.CheckResult{Kind: r.Kind, Code: appErrors.FromError(r.Err()).Code}
	if r.Conflict != nil {
		out.ConflictsID = r.Conflict.ID
	}
	return out
}

// Checker decides whether a draft can be placed. It never writes.
type Checker struct {
	index    Index
	recorder ConflictRecorder
}

// NewChecker builds a checker over the index. recorder may be nil.
func NewChecker(index Index, recorder ConflictRecorder) *Checker {
	return &Checker{index: index, recorder: recorder}
}

// WithIndex returns a checker reading from another index, such as a transaction-bound store.
func (c *Checker) WithIndex(index Index) *Checker {
	return &Checker{index: index, recorder: c.recorder}
}

// Check runs, in order: end after start, classroom, class or group, teacher.
// The first failing step wins. The draft's own id never conflicts with itself.
func (c *Checker) Check(ctx context.Context, draft models.OccupancyDraft) (Result, error) {
	window := Interval{Start: draft.Start, End: draft.End}
	if !window.Valid() {
		return Result{}, appErrors.Clone(appErrors.ErrEndBeforeStart, "")
	}

	steps := []struct {
		kind models.ConflictKind
		key  ResourceKey
		skip bool
	}{
		{kind: models.ConflictClassroom, key: ClassroomKey(draft.ClassroomID)},
		{kind: models.ConflictGroup, key: ClassGroupKey(deref(draft.ClassID), draft.Group), skip: deref(draft.ClassID) == ""},
		{kind: models.ConflictTeacher, key: TeacherKey(deref(draft.TeacherID)), skip: deref(draft.TeacherID) == ""},
	}

	for _, step := range steps {
		if step.skip {
			continue
		}
		found, err := c.index.Overlapping(ctx, step.key, window)
		if err != nil {
			return Result{}, err
		}
		for i := range found {
			if draft.ID != "" && found[i].ID == draft.ID {
				continue
			}
			if c.recorder != nil {
				c.recorder.RecordConflict(string(step.kind))
			}
			conflict := found[i]
			return Result{Kind: step.kind, Conflict: &conflict}, nil
		}
	}
	return Result{Kind: models.ConflictNone}, nil
}

// Ensure runs Check and folds a conflict into an error.
func (c *Checker) Ensure(ctx context.Context, draft models.OccupancyDraft) error {
	result, err := c.Check(ctx, draft)
	if err != nil {
		return err
	}
	return result.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
