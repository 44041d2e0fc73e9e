package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/Philip-857-bit/feedback/internal/domain"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{
	"ID", "Submitted", "Name", "Email", "User Type", "Rating", "Feedback", "Photo URLs", "Consent", "Anonymous",
}

const exportTimeFormat = "January 2, 2006 15:04"

// ExportXLSX renders all records as a spreadsheet, newest first as given.
func ExportXLSX(feedbacks []domain.Feedback) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Feedback"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for col, h := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, fb := range feedbacks {
		values := exportRow(&fb)
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportCSV renders all records as CSV with the same columns as the
// spreadsheet export.
func ExportCSV(feedbacks []domain.Feedback) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeaders); err != nil {
		return nil, err
	}
	for _, fb := range feedbacks {
		if err := w.Write(exportRow(&fb)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportRow(fb *domain.Feedback) []string {
	rating := "N/A"
	if fb.Rating != nil {
		rating = strconv.Itoa(*fb.Rating)
	}
	return []string{
		fb.ID.String(),
		fb.CreatedAt.Format(exportTimeFormat),
		fb.Name,
		fb.Email,
		string(fb.UserType),
		rating,
		fb.Feedback,
		strings.Join(fb.PhotoURLs, ", "),
		yesNo(fb.Consent),
		yesNo(fb.IsAnonymous),
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
