package models

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// OccupancyType classifies a session (lecture, tutorial, lab, exam...).
type OccupancyType string

// GroupTarget identifies who of a class attends an occupancy: the whole class or one group.
type GroupTarget struct {
	number int
}

// WholeClass targets every student of the class.
func WholeClass() GroupTarget { return GroupTarget{} }

// Group targets group n. Non-positive numbers collapse to WholeClass.
func Group(n int) GroupTarget {
	if n <= 0 {
		return WholeClass()
	}
	return GroupTarget{number: n}
}

// IsWholeClass reports whether the target is the whole class.
func (g GroupTarget) IsWholeClass() bool { return g.number == 0 }

// Number returns the stored group number, 0 for the whole class.
func (g GroupTarget) Number() int { return g.number }

// ConflictsWith reports whether two targets of the same class share students.
// WholeClass conflicts with everything; Group(n) conflicts with Group(n) and WholeClass.
func (g GroupTarget) ConflictsWith(other GroupTarget) bool {
	if g.IsWholeClass() || other.IsWholeClass() {
		return true
	}
	return g.number == other.number
}

// Label is the display name of the target, empty for the whole class.
func (g GroupTarget) Label() string {
	if g.IsWholeClass() {
		return ""
	}
	return "Groupe " + strconv.Itoa(g.number)
}

func (g GroupTarget) String() string {
	if g.IsWholeClass() {
		return "whole-class"
	}
	return "group-" + strconv.Itoa(g.number)
}

// Occupancy is a scheduled event. End is derived from Start and DurationSeconds.
type Occupancy struct {
	ID              string        `db:"id" json:"id"`
	ClassroomID     string        `db:"classroom_id" json:"classroom_id"`
	SubjectID       *string       `db:"subject_id" json:"subject_id,omitempty"`
	TeacherID       *string       `db:"teacher_id" json:"teacher_id,omitempty"`
	ClassID         *string       `db:"class_id" json:"class_id,omitempty"`
	GroupNumber     int           `db:"group_number" json:"group_number"`
	Start           time.Time     `db:"start_datetime" json:"start_datetime"`
	DurationSeconds int64         `db:"duration_seconds" json:"duration_seconds"`
	OccupancyType   OccupancyType `db:"occupancy_type" json:"occupancy_type"`
	Name            string        `db:"name" json:"name"`
	Deleted         bool          `db:"deleted" json:"deleted"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// Duration returns the occupancy length.
func (o Occupancy) Duration() time.Duration {
	return time.Duration(o.DurationSeconds) * time.Second
}

// End returns start + duration.
func (o Occupancy) End() time.Time {
	return o.Start.Add(o.Duration())
}

// Group returns the typed group target.
func (o Occupancy) Group() GroupTarget {
	return Group(o.GroupNumber)
}

// Draft projects the occupancy into the shape consumed by the conflict checker.
func (o Occupancy) Draft() OccupancyDraft {
	return OccupancyDraft{
		ID:          o.ID,
		ClassroomID: o.ClassroomID,
		ClassID:     o.ClassID,
		TeacherID:   o.TeacherID,
		Group:       o.Group(),
		Start:       o.Start,
		End:         o.End(),
	}
}

// OccupancyDraft is a proposed placement. ID is set when the draft replaces an existing occupancy.
type OccupancyDraft struct {
	ID          string
	ClassroomID string
	ClassID     *string
	TeacherID   *string
	Group       GroupTarget
	Start       time.Time
	End         time.Time
}

// OccupancyDetail is an occupancy joined with the names of its relations.
type OccupancyDetail struct {
	Occupancy
	ClassroomName    *string `db:"classroom_name"`
	SubjectName      *string `db:"subject_name"`
	ClassName        *string `db:"class_name"`
	TeacherFirstName *string `db:"teacher_first_name"`
	TeacherLastName  *string `db:"teacher_last_name"`
}

// DisplayOccupancy is the listing representation of an occupancy.
type DisplayOccupancy struct {
	ID            string        `json:"id"`
	ClassroomID   string        `json:"classroom_id,omitempty"`
	ClassroomName string        `json:"classroom_name"`
	GroupNumber   int           `json:"group_number"`
	GroupName     string        `json:"group_name"`
	SubjectID     string        `json:"subject_id,omitempty"`
	SubjectName   string        `json:"subject_name"`
	ClassID       string        `json:"class_id,omitempty"`
	ClassName     string        `json:"class_name"`
	TeacherID     string        `json:"teacher_id,omitempty"`
	TeacherName   string        `json:"teacher_name"`
	Start         int64         `json:"start"`
	End           int64         `json:"end"`
	OccupancyType OccupancyType `json:"occupancy_type"`
	Name          string        `json:"name"`
}

// DayBucket groups the occupancies of one calendar day, labelled dd-mm-yyyy.
type DayBucket struct {
	Date        string             `json:"date"`
	Occupancies []DisplayOccupancy `json:"occupancies"`
}

// OccupancyResource selects which relation a listing is scoped to.
type OccupancyResource string

const (
	OccupancyResourceAll       OccupancyResource = "all"
	OccupancyResourceClassroom OccupancyResource = "classroom"
	OccupancyResourceSubject   OccupancyResource = "subject"
	OccupancyResourceClass     OccupancyResource = "class"
	OccupancyResourceTeacher   OccupancyResource = "teacher"
	// OccupancyResourceStudent lists the class occupancies a student attends:
	// whole-class sessions plus those of the student's group.
	OccupancyResourceStudent OccupancyResource = "student"
)

// OccupancyFilter narrows a listing. Start and End are inclusive and optional.
type OccupancyFilter struct {
	Resource   OccupancyResource
	ResourceID string
	Start      *time.Time
	End        *time.Time
	PerDayCap  int
}

// CreateOccupancyRequest is the payload for booking an occupancy. Start and End
// are unix seconds; zero is the epoch, and ordering is checked by the service.
type CreateOccupancyRequest struct {
	SubjectID     *string `json:"subject_id"`
	ClassroomID   string  `json:"classroom_id" validate:"required"`
	TeacherID     *string `json:"teacher_id"`
	GroupNumber   int     `json:"group_number" validate:"gte=0"`
	Start         int64   `json:"start"`
	End           int64   `json:"end"`
	Name          string  `json:"name" validate:"required,max=255"`
	OccupancyType string  `json:"occupancy_type" validate:"required"`
}

// UpdateOccupancyRequest patches an occupancy. Nil fields stay unchanged.
type UpdateOccupancyRequest struct {
	ClassroomID *string `json:"classroom_id"`
	Start       *int64  `json:"start"`
	End         *int64  `json:"end"`
	Name        *string `json:"name" validate:"omitempty,max=255"`
}

// CheckBatchRequest lists drafts previewed together.
type CheckBatchRequest struct {
	Occupancies []CreateOccupancyRequest `json:"occupancies" validate:"required,min=1,dive"`
}

// ConflictKind is the outcome of a conflict check.
type ConflictKind string

const (
	ConflictNone      ConflictKind = "clear"
	ConflictClassroom ConflictKind = "classroom"
	ConflictGroup     ConflictKind = "class_group"
	ConflictTeacher   ConflictKind = "teacher"
)

// CheckResult is returned by speculative checks.
type CheckResult struct {
	OK          bool         `json:"ok"`
	Kind        ConflictKind `json:"kind"`
	Code        string       `json:"code,omitempty"`
	ConflictsID string       `json:"conflicts_with,omitempty"`
}

// OccupancyConflictError is wrapped by conflict errors and carries the blocking occupancy.
type OccupancyConflictError struct {
	Kind     ConflictKind
	Conflict Occupancy
}

// Error implements the error interface.
func (e *OccupancyConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s conflict with occupancy %s", e.Kind, e.Conflict.ID)
}

// OccupancyTypeTable is the immutable set of allowed occupancy types, loaded once at startup.
type OccupancyTypeTable struct {
	all   map[OccupancyType]struct{}
	group map[OccupancyType]struct{}
}

// NewOccupancyTypeTable builds the table. Group-only types must be part of the full set.
func NewOccupancyTypeTable(all, groupOnly []string) (OccupancyTypeTable, error) {
	if len(all) == 0 {
		return OccupancyTypeTable{}, fmt.Errorf("occupancy type table requires at least one type")
	}
	table := OccupancyTypeTable{
		all:   make(map[OccupancyType]struct{}, len(all)),
		group: make(map[OccupancyType]struct{}, len(groupOnly)),
	}
	for _, t := range all {
		table.all[OccupancyType(t)] = struct{}{}
	}
	for _, t := range groupOnly {
		if _, ok := table.all[OccupancyType(t)]; !ok {
			return OccupancyTypeTable{}, fmt.Errorf("group occupancy type %q is not a known type", t)
		}
		table.group[OccupancyType(t)] = struct{}{}
	}
	return table, nil
}

// Known reports whether t is a configured type.
func (t OccupancyTypeTable) Known(typ OccupancyType) bool {
	_, ok := t.all[typ]
	return ok
}

// Allows reports whether typ may be booked for the target. Group bookings
// accept only group types; whole-class bookings reject them.
func (t OccupancyTypeTable) Allows(typ OccupancyType, target GroupTarget) bool {
	if !t.Known(typ) {
		return false
	}
	_, groupOnly := t.group[typ]
	if target.IsWholeClass() {
		return !groupOnly
	}
	return groupOnly
}

// Types lists the configured types in lexical order.
func (t OccupancyTypeTable) Types() []OccupancyType {
	out := make([]OccupancyType, 0, len(t.all))
	for typ := range t.all {
		out = append(out, typ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
