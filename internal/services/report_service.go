package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/models"
	"github.com/LuisSoma75/SomaEdu-sub000/internal/repositories"
)

const (
	summarySheet = "Summary"
	areasSheet   = "Areas"
	itemsSheet   = "Items"
)

type reportService struct {
	repo      repositories.Repository
	evaluator *attemptEvaluator
	logger    *slog.Logger
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	return &reportService{
		repo:      repo,
		evaluator: &attemptEvaluator{repo: repo, logger: logger, now: time.Now},
		logger:    logger,
	}
}

type reportData struct {
	attempt    *models.ExamAttempt
	evaluation *evaluation
	asked      []models.AskedItem
	answered   []repositories.AnsweredRow
}

func (s *reportService) ExportAttempt(ctx context.Context, attemptID uint) ([]byte, error) {
	data, err := s.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	for _, name := range []string{areasSheet, itemsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
		}
	}

	if err := writeSummarySheet(f, data); err != nil {
		return nil, err
	}
	if err := writeAreasSheet(f, data.evaluation.Results); err != nil {
		return nil, err
	}
	if err := writeItemsSheet(f, data.asked, data.answered); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Attempt report exported",
		"attempt_id", attemptID,
		"items", len(data.asked),
		"bytes", buf.Len())
	return buf.Bytes(), nil
}

// load reads the attempt and its item history concurrently.
func (s *reportService) load(ctx context.Context, attemptID uint) (*reportData, error) {
	var data reportData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		attempt, err := s.repo.Attempt().GetByID(gctx, nil, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}
		data.attempt = attempt
		return nil
	})
	g.Go(func() error {
		ev, err := s.evaluator.evaluate(gctx, attemptID)
		data.evaluation = ev
		return err
	})
	g.Go(func() error {
		asked, err := s.repo.AskedItem().ListByAttempt(gctx, nil, attemptID)
		if err != nil {
			return fmt.Errorf("failed to list asked items: %w", err)
		}
		data.asked = asked
		return nil
	})
	g.Go(func() error {
		answered, err := s.repo.Answer().ListAnswered(gctx, nil, attemptID)
		if err != nil {
			return fmt.Errorf("failed to list answers: %w", err)
		}
		data.answered = answered
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, data *reportData) error {
	attempt := data.attempt
	summary := data.evaluation.Summary

	reason, ended := "", ""
	if attempt.FinishReason != nil {
		reason = string(*attempt.FinishReason)
	}
	if attempt.EndedAt != nil {
		ended = attempt.EndedAt.Format(time.RFC3339)
	}

	return writeRows(f, summarySheet, [][]interface{}{
		{"Field", "Value"},
		{"Attempt", attempt.ID},
		{"Student", attempt.StudentID},
		{"Subject", attempt.SubjectID},
		{"State", string(attempt.State)},
		{"Finish reason", reason},
		{"Started at", attempt.StartedAt.Format(time.RFC3339)},
		{"Ended at", ended},
		{"Total items", summary.Total},
		{"Correct", summary.Correct},
		{"Global accuracy %", summary.GlobalAccuracyPct},
		{"Weighted mastery", summary.WeightedMastery},
		{"Area average accuracy %", summary.AreaAvgAccuracyPct},
		{"Area average mastery", summary.AreaAvgMastery},
		{"Response seconds", data.evaluation.ResponseSecs},
	})
}

func writeAreasSheet(f *excelize.File, results []models.AreaResult) error {
	rows := [][]interface{}{
		{"Area ID", "Area", "Total", "Correct", "Accuracy %", "Mastery", "Level"},
	}
	for _, r := range results {
		rows = append(rows, []interface{}{r.AreaID, r.AreaName, r.Total, r.Correct, r.AccuracyPct, r.MasteryScore, string(r.Level)})
	}
	return writeRows(f, areasSheet, rows)
}

func writeItemsSheet(f *excelize.File, asked []models.AskedItem, answered []repositories.AnsweredRow) error {
	byQuestion := make(map[uint]repositories.AnsweredRow, len(answered))
	for _, row := range answered {
		byQuestion[row.QuestionID] = row
	}

	rows := [][]interface{}{
		{"Order", "Question ID", "Target difficulty", "Presented at", "Area", "Option ID", "Correct", "Response seconds"},
	}
	for _, item := range asked {
		row := []interface{}{item.Order, item.QuestionID, item.DifficultyShown, item.PresentedAt.Format(time.RFC3339)}
		if ans, ok := byQuestion[item.QuestionID]; ok {
			row = append(row, ans.AreaName, ans.OptionID, ans.IsCorrect, ans.ResponseSeconds)
		} else {
			row = append(row, "", "", "", "")
		}
		rows = append(rows, row)
	}
	return writeRows(f, itemsSheet, rows)
}
