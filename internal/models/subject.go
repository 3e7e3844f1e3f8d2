package models

import "time"

// Subject represents a course owned by exactly one class.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ClassID   string    `db:"class_id" json:"class_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectDetail enriches a subject with its teachers, groups and planned hours.
type SubjectDetail struct {
	Subject
	ClassName  string                 `db:"class_name" json:"class_name"`
	Teachers   []SubjectTeacherDetail `db:"-" json:"teachers"`
	Groups     []int                  `db:"-" json:"groups"`
	TotalHours float64                `db:"-" json:"total_hours"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	ClassID  string
	Search   string
	Page     int
	PageSize int
}

// CreateSubjectRequest creates a subject and assigns its in-charge teacher.
type CreateSubjectRequest struct {
	Name              string `json:"name" validate:"required,max=255"`
	ClassID           string `json:"class_id" validate:"required"`
	TeacherInChargeID string `json:"teacher_in_charge_id" validate:"required"`
}

// UpdateSubjectRequest patches a subject. Nil fields stay unchanged.
type UpdateSubjectRequest struct {
	Name              *string `json:"name" validate:"omitempty,max=255"`
	ClassID           *string `json:"class_id"`
	TeacherInChargeID *string `json:"teacher_in_charge_id"`
}

// SubjectTeachersRequest adds or removes teachers of a subject.
type SubjectTeachersRequest struct {
	TeacherIDs []string `json:"teacher_ids" validate:"required,min=1,dive,required"`
}
