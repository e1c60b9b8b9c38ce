package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// ApplicationRow is one line of the staff review export.
type ApplicationRow struct {
	RegNumber     string
	FullName      string
	Email         string
	Program       string
	Status        string
	StudentNumber string
	SubmittedAt   string
}

var applicationHeaders = []string{"reg_number", "full_name", "email", "program", "status", "student_number", "submitted_at"}

// ApplicationsCSV renders the admissions review list for download.
func ApplicationsCSV(rows []ApplicationRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(applicationHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range rows {
		record := []string{row.RegNumber, row.FullName, row.Email, row.Program, row.Status, row.StudentNumber, row.SubmittedAt}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
