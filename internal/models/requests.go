package models

// ApplyRequest starts a new admission application.
type ApplyRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Program  string `json:"program" validate:"required"`
}

// ApplyResult carries the reference credentials handed back to a new
// applicant. Secret is plaintext for one-time display only.
type ApplyResult struct {
	Application *Application `json:"application"`
	RegNumber   string       `json:"reg_number"`
	Secret      string       `json:"secret"`
	EmailSent   bool         `json:"email_sent"`
}

// DocumentUpdateRequest sets the three verification flags.
type DocumentUpdateRequest struct {
	IDVerified             bool `json:"doc_id_verified"`
	TranscriptVerified     bool `json:"doc_transcript_verified"`
	RecommendationVerified bool `json:"doc_recommendation_verified"`
}

// DecisionRequest records a staff decision. AutoProvision triggers the
// legacy inline account mint on approval instead of a later explicit
// issuance call.
type DecisionRequest struct {
	Decision      Decision `json:"decision" validate:"required,oneof=approve reject"`
	AutoProvision bool     `json:"auto_provision"`
}

// IssueAccessRequest controls credential issuance for an approved
// application.
type IssueAccessRequest struct {
	ResetSecret bool `json:"reset_secret"`
}

// IssueAccessResult is the one-time credential payload shown to staff.
type IssueAccessResult struct {
	StudentNumber string `json:"student_number"`
	Secret        string `json:"secret"`
	EmailSent     bool   `json:"email_sent"`
}

// HireStaffRequest appoints an office head.
type HireStaffRequest struct {
	OfficeCode   string `json:"office_code" validate:"required"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Surname      string `json:"surname"`
	AllowReplace bool   `json:"allow_replace"`
}

// HireLecturerRequest appoints a module lecturer.
type HireLecturerRequest struct {
	ModuleCode   string `json:"module_code" validate:"required"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Surname      string `json:"surname"`
	AllowReplace bool   `json:"allow_replace"`
}

// HireResult is the one-time credential payload for a new appointment.
type HireResult struct {
	ID       string `json:"id"`
	Secret   string `json:"secret"`
	FullName string `json:"full_name"`
}

// SignupRequest self-registers an applicant portal account.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
}
