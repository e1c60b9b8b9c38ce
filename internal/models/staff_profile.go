package models

import "time"

// StaffProfile is an office-head appointment. staff_id is the derived
// handle {OFFICE}{YY}-{SEQ:03d}; (office_code, issue_year, sequence) is
// unique and at most one profile per office is active at a time.
type StaffProfile struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	StaffID          string     `db:"staff_id" json:"staff_id"`
	OfficeCode       string     `db:"office_code" json:"office_code"`
	IssueYear        int        `db:"issue_year" json:"issue_year"`
	Sequence         int        `db:"sequence" json:"sequence"`
	FirstName        string     `db:"first_name" json:"first_name"`
	Surname          string     `db:"surname" json:"surname"`
	LastName         string     `db:"last_name" json:"last_name"`
	FullName         string     `db:"full_name" json:"full_name"`
	AssignedPassword string     `db:"assigned_password" json:"-"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	DeactivatedAt    *time.Time `db:"deactivated_at" json:"deactivated_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}
