package models

import "time"

// Program is a catalog entry applicants choose from.
type Program struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	Faculty    string    `db:"faculty" json:"faculty"`
	Department string    `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
