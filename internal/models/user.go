package models

import "time"

// UserRole identifies the portal a user belongs to.
type UserRole string

const (
	RoleStudent  UserRole = "student"
	RoleLecturer UserRole = "lecturer"
	RoleStaff    UserRole = "staff"
	RoleAdmin    UserRole = "admin"
)

// StudentStatus tracks the promotion from applicant to enrolled.
type StudentStatus string

const (
	StudentStatusApplicant StudentStatus = "applicant"
	StudentStatusEnrolled  StudentStatus = "enrolled"
)

// User is an authentication principal. The username format depends on the
// issuance path: 8-digit student numbers, prefixed staff/lecturer IDs, or a
// REG#### reference code for unconfirmed applicants. Exactly one role
// profile is carried inline (role + student_status).
type User struct {
	ID            string        `db:"id" json:"id"`
	Username      string        `db:"username" json:"username"`
	Email         string        `db:"email" json:"email"`
	PasswordHash  string        `db:"password_hash" json:"-"`
	FullName      string        `db:"full_name" json:"full_name"`
	Role          UserRole      `db:"role" json:"role"`
	StudentStatus StudentStatus `db:"student_status" json:"student_status,omitempty"`
	Active        bool          `db:"active" json:"active"`
	LastLogin     *time.Time    `db:"last_login" json:"last_login,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
