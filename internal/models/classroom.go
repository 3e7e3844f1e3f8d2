package models

import "time"

// Classroom is a bookable room.
type Classroom struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter captures listing options. Search applies from three characters on.
type ClassroomFilter struct {
	Search   string
	Page     int
	PageSize int
}

// CreateClassroomRequest is the payload for creating a classroom.
type CreateClassroomRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
}

// UpdateClassroomRequest renames a classroom. Capacity cannot change.
type UpdateClassroomRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}
