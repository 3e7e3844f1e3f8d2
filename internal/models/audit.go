package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionOccupancyCreate = "OCCUPANCY_CREATE"
	AuditActionOccupancyUpdate = "OCCUPANCY_UPDATE"
	AuditActionOccupancyDelete = "OCCUPANCY_DELETE"
	AuditActionClassroomCreate = "CLASSROOM_CREATE"
	AuditActionClassroomUpdate = "CLASSROOM_UPDATE"
	AuditActionClassroomDelete = "CLASSROOM_DELETE"
	AuditActionSubjectCreate   = "SUBJECT_CREATE"
	AuditActionSubjectUpdate   = "SUBJECT_UPDATE"
	AuditActionSubjectDelete   = "SUBJECT_DELETE"
	AuditActionSubjectTeachers = "SUBJECT_TEACHERS"
	AuditActionTeacherCreate   = "TEACHER_CREATE"
	AuditActionClassCreate     = "CLASS_CREATE"
	AuditActionStudentCreate   = "STUDENT_CREATE"
	AuditActionStudentUpdate   = "STUDENT_UPDATE"
	AuditActionStudentDelete   = "STUDENT_DELETE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
