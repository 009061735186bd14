package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

// FormObjective is one rated row of the IPCRF table.
type FormObjective struct {
	Code        string
	Description string
	Weight      float64
	Rating      int
	Score       float64
}

// FormKRA groups objective rows under a key result area.
type FormKRA struct {
	Name          string
	Objectives    []FormObjective
	AverageRating float64
	Score         float64
}

// IPCRFForm carries everything printed on the rating form.
type IPCRFForm struct {
	SchoolName      string
	TeacherName     string
	EmployeeNo      string
	Position        string
	RatingPeriod    string
	RaterName       string
	ApproverName    string
	Status          string
	Remarks         string
	KRAs            []FormKRA
	TotalScore      float64
	NumericalRating float64
}

// column widths in mm: KRA / objective, weight, rating, score.
var formColumns = [4]float64{118, 24, 24, 24}

// FormRenderer prints the fixed layout IPCRF form.
type FormRenderer struct{}

// NewFormRenderer constructs a FormRenderer.
func NewFormRenderer() *FormRenderer {
	return &FormRenderer{}
}

// Render lays out header, rating table with KRA subtotals and the signature footer.
func (r *FormRenderer) Render(form IPCRFForm) ([]byte, error) {
	if len(form.KRAs) == 0 {
		return nil, fmt.Errorf("ipcrf form requires at least one KRA")
	}
	label, err := rating.Classify(form.NumericalRating)
	if err != nil {
		return nil, fmt.Errorf("classify numerical rating: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	writeFormHeader(pdf, form)
	writeTableHeader(pdf)
	for _, kra := range form.KRAs {
		writeKRA(pdf, kra)
	}
	writeSummary(pdf, form, label)
	writeSignatures(pdf, form)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render ipcrf form: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFormHeader(pdf *gofpdf.Fpdf, form IPCRFForm) {
	if form.SchoolName != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 7, form.SchoolName, "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "INDIVIDUAL PERFORMANCE COMMITMENT AND REVIEW FORM", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	pairs := [][2]string{
		{"Name of Employee", form.TeacherName},
		{"Employee No.", form.EmployeeNo},
		{"Position", form.Position},
		{"Rating Period", form.RatingPeriod},
		{"Status", form.Status},
	}
	for _, pair := range pairs {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 6, pair[0]+":", "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, pair[1], "", 1, "", false, 0, "")
	}
	pdf.Ln(3)
}

func writeTableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	for i, title := range []string{"KRA / Objective", "Weight (%)", "Rating", "Score"} {
		pdf.CellFormat(formColumns[i], 8, title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func writeKRA(pdf *gofpdf.Fpdf, kra FormKRA) {
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(242, 242, 242)
	pdf.CellFormat(sum(formColumns[:]), 7, kra.Name, "1", 1, "", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, obj := range kra.Objectives {
		text := obj.Description
		if obj.Code != "" {
			text = obj.Code + "  " + text
		}
		lines := pdf.SplitLines([]byte(text), formColumns[0]-2)
		height := 6.0 * float64(max(len(lines), 1))

		x, y := pdf.GetXY()
		pdf.MultiCell(formColumns[0], 6, text, "1", "", false)
		pdf.SetXY(x+formColumns[0], y)
		pdf.CellFormat(formColumns[1], height, formatNumber(obj.Weight), "1", 0, "C", false, 0, "")
		pdf.CellFormat(formColumns[2], height, strconv.Itoa(obj.Rating), "1", 0, "C", false, 0, "")
		pdf.CellFormat(formColumns[3], height, formatNumber(obj.Score), "1", 1, "C", false, 0, "")
	}

	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(formColumns[0]+formColumns[1], 7, "KRA average rating / subtotal", "1", 0, "R", false, 0, "")
	pdf.CellFormat(formColumns[2], 7, formatNumber(kra.AverageRating), "1", 0, "C", false, 0, "")
	pdf.CellFormat(formColumns[3], 7, formatNumber(kra.Score), "1", 1, "C", false, 0, "")
}

func writeSummary(pdf *gofpdf.Fpdf, form IPCRFForm, label rating.Label) {
	pdf.Ln(4)
	rows := [][2]string{
		{"Total Score", formatNumber(form.TotalScore)},
		{"Numerical Rating", formatNumber(form.NumericalRating)},
		{"Adjectival Rating", string(label)},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 7, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(50, 7, row[1], "1", 1, "C", false, 0, "")
	}
	if form.Remarks != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Remarks:", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, form.Remarks, "", "", false)
	}
}

func writeSignatures(pdf *gofpdf.Fpdf, form IPCRFForm) {
	pdf.Ln(14)
	width := sum(formColumns[:]) / 3
	names := []string{form.TeacherName, form.RaterName, form.ApproverName}
	roles := []string{"Ratee", "Rater", "Approving Authority"}

	pdf.SetFont("Arial", "B", 10)
	for _, name := range names {
		pdf.CellFormat(width, 6, name, "B", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, role := range roles {
		pdf.CellFormat(width, 5, role, "", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(rating.Round2(v), 'f', 2, 64)
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
