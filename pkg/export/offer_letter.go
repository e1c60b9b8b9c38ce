package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// OfferLetterData carries the fields printed on an admission offer letter.
type OfferLetterData struct {
	FullName      string
	Program       string
	RegNumber     string
	StudentNumber string
	IssuedAt      time.Time
}

// OfferLetterRenderer produces the one-page PDF handed to newly admitted
// students together with their portal credentials.
type OfferLetterRenderer struct {
	University string
}

// NewOfferLetterRenderer constructs a renderer for the given institution name.
func NewOfferLetterRenderer(university string) *OfferLetterRenderer {
	if university == "" {
		university = "University of Kigali"
	}
	return &OfferLetterRenderer{University: university}
}

// Render creates the offer letter PDF.
func (r *OfferLetterRenderer) Render(data OfferLetterData) ([]byte, error) {
	if data.FullName == "" {
		return nil, fmt.Errorf("offer letter requires an applicant name")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, r.University, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, "Office of Admissions and Student Services", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, data.IssuedAt.Format("2 January 2006"), "", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "LETTER OF PROVISIONAL ADMISSION", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 6, fmt.Sprintf("Dear %s,", data.FullName), "", "L", false)
	pdf.Ln(3)
	pdf.MultiCell(0, 6, fmt.Sprintf(
		"We are pleased to inform you that your application (reference %s) has been approved. "+
			"You have been admitted to the programme of %s.", data.RegNumber, data.Program), "", "L", false)
	pdf.Ln(3)

	if data.StudentNumber != "" {
		pdf.MultiCell(0, 6, fmt.Sprintf(
			"Your permanent student number is %s. Use it together with the credentials issued "+
				"by the admissions office to access the student portal.", data.StudentNumber), "", "L", false)
		pdf.Ln(3)
	}

	pdf.MultiCell(0, 6, "Please report to the Office of the Registrar to complete enrollment formalities.", "", "L", false)
	pdf.Ln(10)

	pdf.SetFont("Arial", "I", 11)
	pdf.CellFormat(0, 6, "Admissions Office", "", 1, "L", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render offer letter: %w", err)
	}
	return buf.Bytes(), nil
}
