package models

import "time"

// Class represents a cohort of students that subjects belong to.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Level     string    `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Search   string
	Page     int
	PageSize int
}

// CreateClassRequest is the payload for creating a class.
type CreateClassRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Level string `json:"level" validate:"required,max=50"`
}
