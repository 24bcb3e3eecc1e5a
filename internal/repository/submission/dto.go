package submission

import (
	"strconv"

	"github.com/confbase/confbase/internal/domain"
)

// buildHashFields converts a Submission into a flat map for HSET. Schedule
// times additionally land in *_ts numeric fields so the agenda query can
// range over them.
func buildHashFields(sub *domain.Submission) map[string]string {
	m := map[string]string{
		"title":        sub.Title,
		"abstract":     sub.Abstract,
		"fullname":     sub.Fullname,
		"coauthors":    sub.Coauthors,
		"institution":  sub.Institution,
		"talk_format":  sub.TalkFormat,
		"arxiv":        sub.Arxiv,
		"available_dt": sub.AvailableDt,
		"starttime":    sub.Starttime,
		"endtime":      sub.Endtime,
		"url":          sub.URL,
		"track":        sub.Track,
	}
	if ts, err := domain.ParseTime(sub.Starttime); sub.Starttime != "" && err == nil {
		m["starttime_ts"] = strconv.FormatInt(ts.Unix(), 10)
	}
	if ts, err := domain.ParseTime(sub.Endtime); sub.Endtime != "" && err == nil {
		m["endtime_ts"] = strconv.FormatInt(ts.Unix(), 10)
	}
	return m
}

// parseHashFields converts a flat hash map back into a Submission.
func parseHashFields(id string, m map[string]string) domain.Submission {
	return domain.Submission{
		ID:          id,
		Title:       m["title"],
		Abstract:    m["abstract"],
		Fullname:    m["fullname"],
		Coauthors:   m["coauthors"],
		Institution: m["institution"],
		TalkFormat:  m["talk_format"],
		Arxiv:       m["arxiv"],
		AvailableDt: m["available_dt"],
		Starttime:   m["starttime"],
		Endtime:     m["endtime"],
		URL:         m["url"],
		Track:       m["track"],
	}
}
