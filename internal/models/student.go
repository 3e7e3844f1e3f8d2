package models

import "time"

// Student belongs to one class and optionally one of its groups.
// GroupNumber 0 means the student only attends whole-class sessions.
type Student struct {
	ID          string    `db:"id" json:"id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	Email       string    `db:"email" json:"email"`
	ClassID     string    `db:"class_id" json:"class_id"`
	GroupNumber int       `db:"group_number" json:"group_number"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Group returns the typed group target.
func (s Student) Group() GroupTarget {
	return Group(s.GroupNumber)
}

// StudentDetail enriches a student with their class, subjects and planned hours.
type StudentDetail struct {
	Student
	ClassName  string    `db:"class_name" json:"class_name"`
	Subjects   []Subject `db:"-" json:"subjects"`
	TotalHours float64   `db:"-" json:"total_hours"`
}

// StudentFilter captures filtering options for listing students.
type StudentFilter struct {
	ClassID  string
	Search   string
	Page     int
	PageSize int
}

// CreateStudentRequest is the payload for enrolling a student.
type CreateStudentRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	ClassID     string `json:"class_id" validate:"required"`
	GroupNumber int    `json:"group_number" validate:"gte=0"`
}

// UpdateStudentRequest patches a student. Nil fields stay unchanged.
type UpdateStudentRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	ClassID     *string `json:"class_id"`
	GroupNumber *int    `json:"group_number" validate:"omitempty,gte=0"`
}
