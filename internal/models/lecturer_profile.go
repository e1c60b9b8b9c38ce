package models

import "time"

// LecturerProfile is a module-teaching appointment, sequenced per
// (module_code, issue_year) the same way staff profiles are sequenced per
// office. The handle uses the fixed LEC prefix instead of the module code.
type LecturerProfile struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	LecturerID       string     `db:"lecturer_id" json:"lecturer_id"`
	ModuleCode       string     `db:"module_code" json:"module_code"`
	ModuleName       string     `db:"module_name" json:"module_name"`
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
