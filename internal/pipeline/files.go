// Package pipeline turns agenda files into the offline recommendation
// artifacts served by the API.
package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/confbase/confbase/internal/domain"
)

// ListAgendaFiles returns every *.csv / *.json file under dir, sorted.
func ListAgendaFiles(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.csv", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob agenda dir: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}

// Edition derives the edition name from an agenda file path (the basename
// without extension).
func Edition(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseFile reads the submissions of one agenda file, dispatching on the
// extension. Unknown extensions are treated as CSV, which is what the site
// data exports default to.
func ParseFile(path string) ([]domain.Submission, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open agenda file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return parseJSON(f, path)
	}
	return parseCSV(f, path)
}

func parseJSON(r io.Reader, path string) ([]domain.Submission, error) {
	var subs []domain.Submission
	if err := json.NewDecoder(r).Decode(&subs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return subs, nil
}

func parseCSV(r io.Reader, path string) ([]domain.Submission, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}

	var subs []domain.Submission
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		subs = append(subs, domain.Submission{
			ID:          field("submission_id"),
			Title:       field("title"),
			Abstract:    field("abstract"),
			Fullname:    field("fullname"),
			Coauthors:   field("coauthors"),
			Institution: field("institution"),
			TalkFormat:  field("talk_format"),
			Arxiv:       field("arxiv"),
			AvailableDt: field("available_dt"),
			Starttime:   field("starttime"),
			Endtime:     field("endtime"),
			URL:         field("url"),
			Track:       field("track"),
		})
	}
	return subs, nil
}
