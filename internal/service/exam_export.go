package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	apperrors "github.com/uchennaezeilo/ExamCert/internal/pkg/errors"
)

// Форматы выгрузки истории
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

var historyExportHeaders = []string{"Attempt", "Certification", "Status", "Score", "Started at", "Finished at"}

// ExportHistory выгружает историю попыток пользователя в CSV или XLSX
func (s *ExamService) ExportHistory(ctx context.Context, userID uint, format string, w io.Writer) error {
	if format != ExportFormatCSV && format != ExportFormatXLSX {
		return fmt.Errorf("%w: unsupported export format %q", apperrors.ErrValidation, format)
	}

	rows, err := s.History(ctx, userID)
	if err != nil {
		return err
	}

	if format == ExportFormatXLSX {
		return writeHistoryXLSX(w, rows)
	}
	return writeHistoryCSV(w, rows)
}

func historyRecord(r entity.AttemptSummary) []string {
	score := ""
	if r.Score != nil {
		score = strconv.Itoa(*r.Score)
	}
	finished := ""
	if r.FinishedAt != nil {
		finished = r.FinishedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		strconv.FormatUint(uint64(r.ID), 10),
		sanitizeForExcel(r.CertificationName),
		string(r.AttemptStatus),
		score,
		r.StartedAt.UTC().Format(time.RFC3339),
		finished,
	}
}

// writeHistoryCSV пишет CSV с BOM, чтобы Excel корректно открыл UTF-8
func writeHistoryCSV(w io.Writer, rows []entity.AttemptSummary) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(historyExportHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writer.Write(historyRecord(r)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// writeHistoryXLSX пишет XLSX через StreamWriter
func writeHistoryXLSX(w io.Writer, rows []entity.AttemptSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "History"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	headers := make([]interface{}, len(historyExportHeaders))
	for i, h := range historyExportHeaders {
		headers[i] = h
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	for i, r := range rows {
		record := historyRecord(r)
		row := make([]interface{}, len(record))
		for j, v := range record {
			row[j] = v
		}
		if r.Score != nil {
			row[3] = *r.Score
		}
		if err := sw.SetRow(fmt.Sprintf("A%d", i+2), row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
