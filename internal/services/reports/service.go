package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/models"
)

// Service renders publish-job reports as PDF documents
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new report service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// JobReport renders a one-page PDF summarizing a publish job: identity,
// outcome, timeline, and the failure diagnostics when present.
func (s *Service) JobReport(job *models.PublishJob) ([]byte, error) {
	s.logger.Debug().Str("job_id", job.ID).Msg("Rendering job report PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Publish Job Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s", time.Now().Format(time.RFC1123)), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	s.writeRow(pdf, "Job ID", job.ID)
	s.writeRow(pdf, "Title", job.Title)
	s.writeRow(pdf, "Mode", job.Mode)
	s.writeRow(pdf, "Status", string(job.Status))
	s.writeRow(pdf, "Last stage", job.LastStep)
	s.writeRow(pdf, "Attempts", fmt.Sprintf("%d", job.AttemptCount))

	if job.NoteURL != "" {
		s.writeRow(pdf, "Draft URL", job.NoteURL)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Timeline", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)

	s.writeTimeRow(pdf, "Created", &job.CreatedAt)
	s.writeTimeRow(pdf, "Started", job.StartedAt)
	s.writeTimeRow(pdf, "Finished", job.FinishedAt)
	s.writeTimeRow(pdf, "Posted", job.PostedAt)

	if job.StartedAt != nil && job.FinishedAt != nil {
		s.writeRow(pdf, "Duration", job.FinishedAt.Sub(*job.StartedAt).Round(time.Millisecond).String())
	}

	if job.Status == models.JobStatusFailed {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(180, 30, 30)
		pdf.CellFormat(0, 8, "Failure", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Arial", "", 10)

		s.writeRow(pdf, "Error code", job.ErrorCode)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 7, "Message", "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 7, job.ErrorMessage, "", "L", false)
		if job.ErrorScreenshot != "" {
			s.writeRow(pdf, "Screenshot", job.ErrorScreenshot)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().Str("job_id", job.ID).Int("pdf_size", buf.Len()).Msg("Job report rendered")
	return buf.Bytes(), nil
}

func (s *Service) writeRow(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func (s *Service) writeTimeRow(pdf *fpdf.Fpdf, label string, value *time.Time) {
	if value == nil || value.IsZero() {
		return
	}
	s.writeRow(pdf, label, value.Format(time.RFC3339))
}
