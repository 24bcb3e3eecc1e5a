// Package domain holds the core types of the conference backend: submissions,
// user profiles, voting preferences and embedding records.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Submission is a talk abstract. The ID is opaque and assigned by the backing
// store (table-store record ID or search-store document ID).
type Submission struct {
	ID string `json:"submission_id,omitempty"`

	// Fields provided by the submitting user.
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
	Fullname    string `json:"fullname"`
	Coauthors   string `json:"coauthors,omitempty"`
	Institution string `json:"institution,omitempty"`
	TalkFormat  string `json:"talk_format,omitempty"`
	Arxiv       string `json:"arxiv,omitempty"`
	AvailableDt string `json:"available_dt,omitempty"`

	// Fields set by the organizers when the talk is scheduled.
	Starttime string `json:"starttime,omitempty"`
	Endtime   string `json:"endtime,omitempty"`
	URL       string `json:"url,omitempty"`
	Track     string `json:"track,omitempty"`
}

// timeLayouts are the accepted datetime formats, most specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a schedule datetime in any accepted layout. Times without
// an explicit offset are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q: %w", s, ErrBadRequest)
}

// NormalizeSchedule rewrites starttime/endtime into canonical UTC form when
// both are present. A submission with only one of the two is left untouched.
func (s *Submission) NormalizeSchedule() error {
	if s.Starttime == "" || s.Endtime == "" {
		return nil
	}
	start, err := ParseTime(s.Starttime)
	if err != nil {
		return err
	}
	end, err := ParseTime(s.Endtime)
	if err != nil {
		return err
	}
	s.Starttime = start.UTC().Format("2006-01-02 15:04:05")
	s.Endtime = end.UTC().Format("2006-01-02 15:04:05")
	return nil
}
