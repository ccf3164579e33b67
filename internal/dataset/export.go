package dataset

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"video-factcheck-go/internal/aggregator"
	"video-factcheck-go/internal/types"
)

const (
	SheetAnalyses   = "analyses"
	SheetFactChecks = "fact_checks"
)

var (
	analysesHeader   = []any{"id", "video_id", "video_url", "title", "channel", "created_at", "overview", "verdicts", "true", "false", "skip"}
	factChecksHeader = []any{"video_id", "timestamp", "timestamp_range", "status", "claim", "explanation", "references", "correction"}
)

// Export writes one row per analysis and one row per verdict to an .xlsx
// workbook at path.
func Export(path string, recs []types.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetAnalyses); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFactChecks); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}

	if err := setRow(f, SheetAnalyses, 1, analysesHeader); err != nil {
		return err
	}
	if err := setRow(f, SheetFactChecks, 1, factChecksHeader); err != nil {
		return err
	}

	fcRow := 2
	for i, r := range recs {
		st := aggregator.Tally(r.FactCheck.Results)
		var title, channel string
		if r.VideoInfo != nil {
			title, channel = r.VideoInfo.Title, r.VideoInfo.Description
		}
		row := []any{
			r.ID, r.VideoID, r.VideoURL, title, channel,
			r.CreatedAt.UTC().Format(time.RFC3339),
			overview(r.Summary),
			st.Total, st.True, st.False, st.Skip,
		}
		if err := setRow(f, SheetAnalyses, i+2, row); err != nil {
			return err
		}
		for _, v := range r.FactCheck.Results {
			vr := []any{
				r.VideoID, v.Timestamp, v.TimestampRange, v.Status, v.Claim,
				v.Explanation, strings.Join(v.References, "\n"), v.Correction,
			}
			if err := setRow(f, SheetFactChecks, fcRow, vr); err != nil {
				return err
			}
			fcRow++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// overview pulls brief_overview out of a summary document, falling back to
// the raw JSON.
func overview(summary json.RawMessage) string {
	if len(summary) == 0 {
		return ""
	}
	var s struct {
		BriefOverview string `json:"brief_overview"`
	}
	if err := json.Unmarshal(summary, &s); err == nil && s.BriefOverview != "" {
		return s.BriefOverview
	}
	return string(summary)
}
