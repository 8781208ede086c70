package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gingfrederik/docx"
	"github.com/goccy/go-yaml"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
	FormatDOCX Format = "docx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatXLSX, FormatYAML, FormatDOCX:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", common.InvalidArgumentErrorf("unknown export format %q", s)
	}
}

// Service renders kept candidates into the supported export formats.
type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, now: time.Now}
}

// JSON returns the record set, validated against the export schema.
func (s *Service) JSON(cands []entity.DecisionCandidate) ([]byte, error) {
	recs := Records(cands, s.now())
	b, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return nil, common.NewAppError(common.CodeExport, "marshal json", err)
	}
	if err := ValidateRecordsJSON(b); err != nil {
		return nil, common.NewAppError(common.CodeExport, "validate json", err)
	}
	s.logger.Info("export.json.ok", "rows", len(recs))
	return b, nil
}

func (s *Service) YAML(cands []entity.DecisionCandidate) ([]byte, error) {
	recs := Records(cands, s.now())
	b, err := yaml.Marshal(recs)
	if err != nil {
		return nil, common.NewAppError(common.CodeExport, "marshal yaml", err)
	}
	s.logger.Info("export.yaml.ok", "rows", len(recs))
	return b, nil
}

// XLSX returns a workbook (as bytes) with one row per kept candidate.
func (s *Service) XLSX(cands []entity.DecisionCandidate) ([]byte, error) {
	start := time.Now()
	recs := Records(cands, s.now())

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Decisions"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, common.NewAppError(common.CodeExport, "create sheet", err)
	}
	if idx, _ := f.GetSheetIndex(sheet); idx >= 0 {
		f.SetActiveSheet(idx)
	}
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Document", "Document ID", "Page", "Decision", "Category",
		"Impact", "Cost", "Risk", "Urgency", "Confidence",
		"Score", "Triggers", "Exported At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range recs {
		row := i + 2
		values := []any{
			r.DocLabel, r.DocID, r.PageNumber, r.DecisionText, r.Category,
			r.Impact, r.Cost, r.Risk, r.Urgency, r.Confidence,
			r.DecisionScore, strings.Join(r.Triggers, ", "), r.Timestamp,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, common.NewAppError(common.CodeExport, "write cell", err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 24) // document
	_ = f.SetColWidth(sheet, "B", "B", 38) // id
	_ = f.SetColWidth(sheet, "D", "D", 80) // decision
	_ = f.SetColWidth(sheet, "E", "E", 12)
	_ = f.SetColWidth(sheet, "L", "L", 48) // triggers
	_ = f.SetColWidth(sheet, "M", "M", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, common.NewAppError(common.CodeExport, "xlsx write", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteDOCX saves a review report grouped by document to path.
func (s *Service) WriteDOCX(path string, cands []entity.DecisionCandidate) error {
	recs := Records(cands, s.now())
	f := docx.NewFile()

	title := f.AddParagraph().AddText("Decision Review")
	title.Size(20)
	f.AddParagraph()

	current := ""
	for _, r := range recs {
		if r.DocLabel != current {
			current = r.DocLabel
			run := f.AddParagraph().AddText(r.DocLabel)
			run.Size(16)
		}

		f.AddParagraph().AddText(r.DecisionText)

		meta := f.AddParagraph().AddText(fmt.Sprintf("Page %d | %s | score %d | impact %d cost %d risk %d urgency %d confidence %d",
			r.PageNumber, r.Category, r.DecisionScore, r.Impact, r.Cost, r.Risk, r.Urgency, r.Confidence))
		meta.Size(10)
		meta.Color("808080")

		if len(r.Triggers) > 0 {
			trig := f.AddParagraph().AddText(strings.Join(r.Triggers, ", "))
			trig.Size(9)
			trig.Color("0000FF")
		}
	}
	if len(recs) == 0 {
		f.AddParagraph().AddText("No decisions have been kept yet.")
	}

	if err := f.Save(path); err != nil {
		return common.NewAppError(common.CodeExport, "save docx", err)
	}
	s.logger.Info("export.docx.ok", "rows", len(recs), "path", path)
	return nil
}

// WriteFile renders cands in format into dir and returns the file path.
func (s *Service) WriteFile(ctx context.Context, format Format, dir string, cands []entity.DecisionCandidate) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", common.NewAppError(common.CodeExport, "create export dir", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("decisions-%s.%s", s.now().UTC().Format("20060102-150405"), format))

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatDOCX:
		return path, s.WriteDOCX(path, cands)
	case FormatJSON:
		data, err = s.JSON(cands)
	case FormatYAML:
		data, err = s.YAML(cands)
	case FormatXLSX:
		data, err = s.XLSX(cands)
	default:
		return "", common.InvalidArgumentErrorf("unknown export format %q", format)
	}
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", common.NewAppError(common.CodeExport, "write export", err)
	}
	return path, nil
}
