package models

import "time"

// SubjectTeacher links a teacher to a subject. At most one link per subject is in charge.
type SubjectTeacher struct {
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	InCharge  bool      `db:"in_charge" json:"in_charge"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubjectTeacherDetail enriches an assignment with the teacher name.
type SubjectTeacherDetail struct {
	SubjectTeacher
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}
