// Package dataset reads lists of video URLs for batch runs and writes
// analyses out as spreadsheets.
package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

// Entry is one video to analyse. Label is an optional caller-supplied name.
type Entry struct {
	Row      int    `json:"row"`
	VideoURL string `json:"video_url"`
	Label    string `json:"label,omitempty"`
}

// Load reads entries from an .xlsx workbook or a plain text file with one
// URL per line. Rows without an http(s) URL are skipped and duplicates
// keep their first occurrence.
func Load(path string) ([]Entry, error) {
	var (
		entries []Entry
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		entries, err = loadWorkbook(path)
	default:
		entries, err = loadText(path)
	}
	if err != nil {
		return nil, err
	}
	return lo.UniqBy(entries, func(e Entry) string { return e.VideoURL }), nil
}

// Supported reports whether Load understands the file's extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".txt", ".list":
		return true
	}
	return false
}

func loadWorkbook(path string) ([]Entry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows")
	}

	// find URL and label columns by header
	urlIdx, labelIdx := -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "url") || strings.Contains(l, "link") || strings.Contains(l, "video"):
			if urlIdx == -1 {
				urlIdx = i
			}
		case strings.Contains(l, "title") || strings.Contains(l, "name") || strings.Contains(l, "label"):
			if labelIdx == -1 {
				labelIdx = i
			}
		}
	}

	start := 1
	if urlIdx == -1 {
		// no recognised header: first column holds URLs from the first row
		urlIdx, start = 0, 0
	}

	var out []Entry
	for i := start; i < len(rows); i++ {
		r := rows[i]
		if urlIdx >= len(r) {
			continue
		}
		e := Entry{Row: i + 1, VideoURL: strings.TrimSpace(r[urlIdx])}
		if labelIdx >= 0 && labelIdx < len(r) {
			e.Label = strings.TrimSpace(r[labelIdx])
		}
		if !isHTTP(e.VideoURL) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func loadText(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	row := 0
	for sc.Scan() {
		row++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// "url label words..." is allowed
		u, label, _ := strings.Cut(line, " ")
		if !isHTTP(u) {
			continue
		}
		out = append(out, Entry{Row: row, VideoURL: u, Label: strings.TrimSpace(label)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

func isHTTP(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
