package models

import "time"

// ApplicationStatus is the admission lifecycle state.
type ApplicationStatus string

const (
	ApplicationSubmitted   ApplicationStatus = "submitted"
	ApplicationUnderReview ApplicationStatus = "under_review"
	ApplicationApproved    ApplicationStatus = "approved"
	ApplicationRejected    ApplicationStatus = "rejected"
)

// Decision is a staff action on an application under review.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Application is one admission attempt. reg_number is globally unique;
// student_number is unique once assigned and never cleared. submitted_at is
// set at most once, only while all three document flags are verified.
type Application struct {
	ID                 string            `db:"id" json:"id"`
	ApplicantID        *string           `db:"applicant_id" json:"applicant_id,omitempty"`
	RegNumber          string            `db:"reg_number" json:"reg_number"`
	RegPassword        *string           `db:"reg_password" json:"-"`
	StudentNumber      *string           `db:"student_number" json:"student_number,omitempty"`
	IssuedPassword     *string           `db:"issued_password" json:"-"`
	FullName           string            `db:"full_name" json:"full_name"`
	Email              string            `db:"email" json:"email"`
	Phone              string            `db:"phone" json:"phone"`
	Program            string            `db:"program" json:"program"`
	Status             ApplicationStatus `db:"status" json:"status"`
	DocIDVerified      bool              `db:"doc_id_verified" json:"doc_id_verified"`
	DocTranscript      bool              `db:"doc_transcript_verified" json:"doc_transcript_verified"`
	DocRecommendation  bool              `db:"doc_recommendation_verified" json:"doc_recommendation_verified"`
	SubmittedAt        *time.Time        `db:"submitted_at" json:"submitted_at,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
}

// DocumentsComplete reports whether all three verification flags are set.
func (a *Application) DocumentsComplete() bool {
	return a.DocIDVerified && a.DocTranscript && a.DocRecommendation
}

// ApplicationFilter narrows staff review listings.
type ApplicationFilter struct {
	Status    ApplicationStatus
	Program   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ApplicationStats aggregates the review queue by status.
type ApplicationStats struct {
	Submitted   int `db:"submitted" json:"submitted"`
	UnderReview int `db:"under_review" json:"under_review"`
	Approved    int `db:"approved" json:"approved"`
	Rejected    int `db:"rejected" json:"rejected"`
}
