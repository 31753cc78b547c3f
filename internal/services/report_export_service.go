package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/skilltrack/learning-service/internal/authz"
	"github.com/skilltrack/learning-service/internal/repositories"
)

// ReportExportService renders the organization metrics as an XLSX
// workbook for offline consumption.
type ReportExportService interface {
	ExportOrgMetrics(ctx context.Context, actor authz.Principal) ([]byte, error)
}

type reportExportService struct {
	repo   repositories.Repository
	access *authz.Evaluator
	logger *slog.Logger
	now    func() time.Time
}

func NewReportExportService(repo repositories.Repository, access *authz.Evaluator, logger *slog.Logger) ReportExportService {
	return &reportExportService{
		repo:   repo,
		access: access,
		logger: logger,
		now:    time.Now,
	}
}

func (s *reportExportService) ExportOrgMetrics(ctx context.Context, actor authz.Principal) ([]byte, error) {
	if !s.access.CanAdministerOrg(actor) {
		return nil, ErrForbidden
	}

	now := s.now()
	overview, err := s.repo.Metrics().Overview(ctx, now)
	if err != nil {
		return nil, unavailable("overview", err)
	}
	courses, err := s.repo.Metrics().CompletionRateByCourse(ctx, topCoursesLimit)
	if err != nil {
		return nil, unavailable("completion rate by course", err)
	}
	teams, err := s.repo.Metrics().TeamPerformance(ctx)
	if err != nil {
		return nil, unavailable("team performance", err)
	}
	overdue, err := s.repo.Metrics().OverdueByCourse(ctx, now)
	if err != nil {
		return nil, unavailable("overdue by course", err)
	}

	f := excelize.NewFile()

	if err := s.writeOverviewSheet(f, overview, now); err != nil {
		return nil, err
	}
	if err := s.writeCoursesSheet(f, courses, overdue); err != nil {
		return nil, err
	}
	if err := s.writeTeamsSheet(f, teams); err != nil {
		return nil, err
	}

	// Drop the default sheet excelize creates.
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported org metrics workbook", "exported_by", actor.ID, "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (s *reportExportService) writeOverviewSheet(f *excelize.File, overview *repositories.OverviewStats, now time.Time) error {
	sheetName := "Overview"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	rows := [][]interface{}{
		{"Generated At", now.UTC().Format(time.RFC3339)},
		{"Users", overview.UserCount},
		{"Courses", overview.CourseCount},
		{"Total Enrollments", overview.Total},
		{"Completed Enrollments", overview.Completed},
		{"Completion Rate (%)", completionRate(overview.Completed, overview.Total)},
		{"Overdue Enrollments", overview.Overdue},
	}
	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+1)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

func (s *reportExportService) writeCoursesSheet(f *excelize.File, courses []*repositories.CourseCompletion, overdue []*repositories.CourseCount) error {
	sheetName := "Courses"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	overdueByCourse := make(map[uint]int64, len(overdue))
	for _, o := range overdue {
		overdueByCourse[o.CourseID] = o.Count
	}

	headers := []string{"Course", "Total", "Completed", "Rate (%)", "Overdue"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, c := range courses {
		row := []interface{}{
			c.Title,
			c.Total,
			c.Completed,
			completionRate(c.Completed, c.Total),
			overdueByCourse[c.CourseID],
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}

func (s *reportExportService) writeTeamsSheet(f *excelize.File, teams []*repositories.TeamCompletion) error {
	sheetName := "Teams"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []string{"Team", "Total", "Completed", "Rate (%)"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, t := range teams {
		row := []interface{}{
			t.Team,
			t.Total,
			t.Completed,
			completionRate(t.Completed, t.Total),
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	return nil
}
