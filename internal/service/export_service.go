package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/art-exam-api/internal/export"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

var resultsHeader = []string{
	"Seat", "Full name", "National ID", "Division", "Phone",
	"MCQ", "Hand drawing", "Digital art", "Practice", "Total", "Up to level",
}

// ResultsExport is a rendered workbook ready for download.
type ResultsExport struct {
	FileName string
	Content  []byte
}

// ExportService renders student results as spreadsheets.
type ExportService interface {
	Results(ctx context.Context, collegeID *uint, actor ActivityActor) (ResultsExport, error)
}

type exportService struct {
	students repository.AdminStudentRepository
	results  ResultsService
	activity ActivityRecorder
	logger   zerolog.Logger
	now      func() time.Time
}

// NewExportService constructs the export service.
func NewExportService(students repository.AdminStudentRepository, results ResultsService, activity ActivityRecorder, logger zerolog.Logger) ExportService {
	return &exportService{
		students: students,
		results:  results,
		activity: activity,
		logger:   logger.With().Str("component", "export_service").Logger(),
		now:      time.Now,
	}
}

// Results writes one sheet per college. Each student's results are recomputed
// before export.
func (s *exportService) Results(ctx context.Context, collegeID *uint, actor ActivityActor) (ResultsExport, error) {
	students, err := s.students.ListWithResults(ctx, collegeID)
	if err != nil {
		return ResultsExport{}, err
	}

	byCollege := map[uint][][]string{}
	names := map[uint]string{}
	for _, student := range students {
		results, err := s.results.Evaluate(ctx, student)
		if err != nil {
			return ResultsExport{}, err
		}
		names[student.CollegeID] = student.College.Name
		byCollege[student.CollegeID] = append(byCollege[student.CollegeID], resultsRow(student, results))
	}

	ids := make([]uint, 0, len(byCollege))
	for id := range byCollege {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	sheets := make([]export.SheetSpec, 0, len(ids))
	for _, id := range ids {
		sheets = append(sheets, export.SheetSpec{
			Title:  sheetTitle(id, names[id]),
			Header: resultsHeader,
			Rows:   byCollege[id],
		})
	}
	if len(sheets) == 0 {
		sheets = append(sheets, export.SheetSpec{Title: "Results", Header: resultsHeader})
	}

	workbook, err := export.NewWorkbook(sheets)
	if err != nil {
		return ResultsExport{}, err
	}
	defer workbook.Close()

	content, err := workbook.Bytes()
	if err != nil {
		return ResultsExport{}, err
	}

	if s.activity != nil {
		metadata := map[string]interface{}{"students": len(students)}
		if collegeID != nil {
			metadata["college_id"] = *collegeID
		}
		if _, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "results.exported",
			EntityType: models.ActivityEntityResults,
			Metadata:   metadata,
		}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record export activity")
		}
	}

	return ResultsExport{
		FileName: fmt.Sprintf("results_%s.xlsx", s.now().Format("2006-01-02")),
		Content:  content,
	}, nil
}

func resultsRow(student models.Student, results models.StudentResults) []string {
	level := "no"
	if results.UpToLevel {
		level = "yes"
	}
	return []string{
		strconv.Itoa(student.SeatNumber),
		student.FullName,
		student.NationalID,
		student.Division,
		student.PhoneNumber,
		strconv.Itoa(results.MCQResult),
		strconv.Itoa(results.HandDrawingResult),
		strconv.Itoa(results.DigitalArtResult),
		strconv.Itoa(results.TrialResult),
		strconv.Itoa(results.Total()),
		level,
	}
}

// sheetTitle keeps worksheet names unique and within the 31 character limit.
func sheetTitle(id uint, name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" {
		cleaned = "College"
	}

	suffix := fmt.Sprintf(" (%d)", id)
	runes := []rune(cleaned)
	if limit := 31 - len(suffix); len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + suffix
}
