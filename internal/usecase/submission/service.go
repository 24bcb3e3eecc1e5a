// Package submission implements abstract browsing, recommendation views and
// the submission workflow against the editable table store.
package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/confbase/confbase/internal/domain"
	"github.com/confbase/confbase/internal/recommend"
)

// Browse views.
const (
	ViewDefault         = "default"
	ViewYourVotes       = "your-votes"
	ViewRecommendations = "recommendations"
	ViewPersonalized    = "personalized"
)

// Meta describes the pagination state of a browse page.
type Meta struct {
	CurrentPage int `json:"currentPage"`
	TotalPage   int `json:"totalPage"`
	PageSize    int `json:"pageSize"`
}

// Links holds the self and next page URLs of a browse page.
type Links struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

// Page is one page of browse results.
type Page struct {
	Meta  Meta                `json:"meta"`
	Links *Links              `json:"links,omitempty"`
	Data  []domain.Submission `json:"data"`
}

// BrowseRequest carries the browse query of one request. UserID may be empty;
// vote-based views then produce empty results.
type BrowseRequest struct {
	Edition   string
	UserID    string
	Query     string
	View      string
	Starttime string
	Endtime   string
	Skip      int
	Limit     int
}

// Service coordinates submission browsing and the table-store workflow.
type Service struct {
	repo       Repository
	prefs      PreferenceReader
	neighbors  NeighborSource
	tables     TableStore
	tableRefs  map[string]TableRef
	profiles   ProfileWriter
	pageSize   int
	maxResults int
}

// New creates a submission service. tableRefs maps editions onto their
// table-store locations; editions missing from it reject create/update.
func New(
	repo Repository,
	prefs PreferenceReader,
	neighbors NeighborSource,
	tables TableStore,
	tableRefs map[string]TableRef,
	profiles ProfileWriter,
	pageSize, maxResults int,
) *Service {
	if pageSize <= 0 {
		pageSize = 40
	}
	if maxResults <= 0 {
		maxResults = 1000
	}
	return &Service{
		repo:       repo,
		prefs:      prefs,
		neighbors:  neighbors,
		tables:     tables,
		tableRefs:  tableRefs,
		profiles:   profiles,
		pageSize:   pageSize,
		maxResults: maxResults,
	}
}

// Browse returns one page of submissions for the requested view.
func (s *Service) Browse(ctx context.Context, req BrowseRequest) (Page, error) {
	pageSize := req.Limit
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	total, err := s.repo.Count(ctx, req.Edition)
	if err != nil {
		return Page{}, fmt.Errorf("count submissions: %w", err)
	}
	currentPage := req.Skip/pageSize + 1
	totalPage := total/pageSize + 1

	// Past the last page: meta only, empty data.
	if currentPage > totalPage {
		return Page{
			Meta: Meta{CurrentPage: currentPage, TotalPage: totalPage, PageSize: pageSize},
			Data: []domain.Submission{},
		}, nil
	}

	switch req.View {
	case ViewDefault, "":
		subs, err := s.defaultView(ctx, req)
		if err != nil {
			return Page{}, err
		}
		return Page{
			Meta:  Meta{CurrentPage: currentPage, TotalPage: totalPage, PageSize: pageSize},
			Links: s.pageLinks(req, pageSize, true),
			Data:  slicePage(subs, req.Skip, pageSize),
		}, nil

	case ViewYourVotes:
		subs, err := s.votesView(ctx, req)
		if err != nil {
			return Page{}, err
		}
		return Page{
			Meta:  Meta{CurrentPage: currentPage, TotalPage: len(subs)/pageSize + 1, PageSize: pageSize},
			Links: s.pageLinks(req, pageSize, false),
			Data:  slicePage(subs, req.Skip, pageSize),
		}, nil

	case ViewRecommendations, ViewPersonalized:
		subs, err := s.recommendedView(ctx, req)
		if err != nil {
			return Page{}, err
		}
		subs = filterSchedule(subs, req.Starttime, req.Endtime)
		return Page{
			Meta:  Meta{CurrentPage: currentPage, TotalPage: len(subs)/pageSize + 1, PageSize: pageSize},
			Links: s.pageLinks(req, pageSize, false),
			Data:  slicePage(subs, req.Skip, pageSize),
		}, nil

	default:
		// Unknown view keeps the envelope but returns nothing. Links fall
		// back to the bare default view without query or schedule filters.
		req.View = ViewDefault
		req.Starttime = ""
		req.Endtime = ""
		return Page{
			Meta:  Meta{CurrentPage: currentPage, TotalPage: totalPage, PageSize: pageSize},
			Links: s.pageLinks(req, pageSize, false),
			Data:  []domain.Submission{},
		}, nil
	}
}

func (s *Service) defaultView(ctx context.Context, req BrowseRequest) ([]domain.Submission, error) {
	var subs []domain.Submission
	var err error
	if strings.TrimSpace(req.Query) != "" {
		subs, err = s.repo.Search(ctx, req.Edition, req.Query)
	} else {
		subs, err = s.repo.List(ctx, req.Edition, 0, s.maxResults)
	}
	if err != nil {
		return nil, fmt.Errorf("browse %s: %w", req.Edition, err)
	}
	return filterSchedule(subs, req.Starttime, req.Endtime), nil
}

func (s *Service) votesView(ctx context.Context, req BrowseRequest) ([]domain.Submission, error) {
	liked := s.likedIDs(ctx, req)
	if len(liked) == 0 {
		return nil, nil
	}
	subs, err := s.repo.GetMulti(ctx, req.Edition, liked)
	if err != nil {
		return nil, fmt.Errorf("hydrate votes: %w", err)
	}
	return subs, nil
}

func (s *Service) recommendedView(ctx context.Context, req BrowseRequest) ([]domain.Submission, error) {
	idx, ok := s.neighbors.Index(req.Edition)
	if !ok {
		return nil, nil
	}
	liked := s.likedIDs(ctx, req)

	var ids []string
	if req.View == ViewPersonalized {
		ids = recommend.Personalized(idx, liked)
	} else {
		ids = recommend.Recommendations(idx, liked)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	subs, err := s.repo.GetMulti(ctx, req.Edition, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate recommendations: %w", err)
	}
	return subs, nil
}

// likedIDs swallows vote-lookup failures: anonymous and vote-less users
// browse like everyone else.
func (s *Service) likedIDs(ctx context.Context, req BrowseRequest) []string {
	if req.UserID == "" {
		return nil
	}
	liked, err := s.prefs.ByEdition(ctx, req.UserID, req.Edition)
	if err != nil {
		return nil
	}
	return liked
}

// Get returns one submission, preferring the table store when the edition
// has one configured.
func (s *Service) Get(ctx context.Context, edition, id string) (domain.Submission, error) {
	ref, hasTable := s.tableRefs[edition]
	if hasTable && s.tables.Enabled() {
		fields, err := s.tables.GetFields(ctx, ref.BaseID, ref.Table, id)
		if err != nil {
			return domain.Submission{}, fmt.Errorf("table store get %s: %w", id, err)
		}
		sub, err := submissionFromFields(fields)
		if err != nil {
			return domain.Submission{}, err
		}
		sub.ID = id
		return sub, nil
	}
	return s.repo.Get(ctx, edition, id)
}

// Create submits an abstract to the table store, mirrors it into the search
// store and links the new record to the author's profile. Editions without a
// table store reject with ErrNoTableStore; anonymous submitters get
// ErrUnauthorized after the record is created, matching the submission-form
// flow.
func (s *Service) Create(ctx context.Context, userID, edition string, sub *domain.Submission) (string, error) {
	ref, ok := s.tableRefs[edition]
	if !ok || !s.tables.Enabled() {
		return "", fmt.Errorf("edition %s: %w", edition, domain.ErrNoTableStore)
	}

	sub.NormalizeSchedule()
	id, err := s.tables.CreateRecord(ctx, ref.BaseID, ref.Table, submissionFields(sub))
	if err != nil {
		return "", fmt.Errorf("create submission: %w", err)
	}

	sub.ID = id
	if err := s.repo.Put(ctx, edition, sub); err != nil {
		return id, fmt.Errorf("mirror submission %s: %w", id, err)
	}

	if userID == "" {
		return id, domain.ErrUnauthorized
	}
	if err := s.profiles.Update(ctx, userID, domain.Profile{"submission_id": id}); err != nil {
		return id, fmt.Errorf("link submission to profile: %w", err)
	}
	return id, nil
}

// Update overwrites a table-store record with the given submission and
// refreshes its search-store mirror.
func (s *Service) Update(ctx context.Context, edition, id string, sub *domain.Submission) error {
	ref, ok := s.tableRefs[edition]
	if !ok || !s.tables.Enabled() {
		return fmt.Errorf("edition %s: %w", edition, domain.ErrNoTableStore)
	}

	sub.NormalizeSchedule()
	if err := s.tables.UpdateRecord(ctx, ref.BaseID, ref.Table, id, submissionFields(sub)); err != nil {
		return fmt.Errorf("update submission %s: %w", id, err)
	}

	sub.ID = id
	if err := s.repo.Put(ctx, edition, sub); err != nil {
		return fmt.Errorf("mirror submission %s: %w", id, err)
	}
	return nil
}

// pageLinks builds the current/next URLs. Default-view links carry the query
// and schedule filters, vote-based views only the view itself.
func (s *Service) pageLinks(req BrowseRequest, pageSize int, withQuery bool) *Links {
	base := "/api/abstract/" + req.Edition

	view := req.View
	if view == "" {
		view = ViewDefault
	}
	pairs := []param{{"view", view}}
	if withQuery {
		pairs = append(pairs, param{"query", req.Query})
	}
	if view != ViewYourVotes {
		pairs = append(pairs,
			param{"starttime", req.Starttime},
			param{"endtime", req.Endtime},
		)
	}

	current := buildQueryParams(base, append(pairs,
		param{"skip", strconv.Itoa(req.Skip)},
		param{"limit", strconv.Itoa(pageSize)},
	))
	next := buildQueryParams(base, append(pairs,
		param{"skip", strconv.Itoa(req.Skip + pageSize)},
		param{"limit", strconv.Itoa(pageSize)},
	))
	return &Links{Current: current, Next: next}
}

type param struct {
	key, value string
}

// buildQueryParams appends non-empty key=value pairs to the endpoint.
func buildQueryParams(endpoint string, pairs []param) string {
	var b strings.Builder
	b.WriteString(endpoint)
	sep := "?"
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		b.WriteString(sep)
		b.WriteString(p.key)
		b.WriteString("=")
		b.WriteString(p.value)
		sep = "&"
	}
	return b.String()
}

// slicePage cuts [skip, skip+limit) out of subs with safe bounds. A skip past
// the end yields an empty, non-nil slice.
func slicePage(subs []domain.Submission, skip, limit int) []domain.Submission {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(subs) {
		return []domain.Submission{}
	}
	end := skip + limit
	if end > len(subs) {
		end = len(subs)
	}
	return subs[skip:end]
}

// filterSchedule keeps submissions scheduled inside [starttime, endtime].
// Unparseable bounds or submissions without a schedule pass through.
func filterSchedule(subs []domain.Submission, starttime, endtime string) []domain.Submission {
	if starttime == "" || endtime == "" {
		return subs
	}
	from, errFrom := domain.ParseTime(starttime)
	to, errTo := domain.ParseTime(endtime)
	if errFrom != nil || errTo != nil {
		return subs
	}

	filtered := make([]domain.Submission, 0, len(subs))
	for _, sub := range subs {
		if sub.Starttime == "" || sub.Endtime == "" {
			filtered = append(filtered, sub)
			continue
		}
		start, err1 := domain.ParseTime(sub.Starttime)
		end, err2 := domain.ParseTime(sub.Endtime)
		if err1 != nil || err2 != nil {
			continue
		}
		if !start.Before(from) && !end.After(to) {
			filtered = append(filtered, sub)
		}
	}
	return filtered
}

// submissionFields flattens a submission into table-store fields.
func submissionFields(sub *domain.Submission) map[string]any {
	raw, _ := json.Marshal(sub)
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	delete(fields, "submission_id")
	return fields
}

// submissionFromFields is the reverse mapping for table-store reads.
func submissionFromFields(fields map[string]any) (domain.Submission, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("marshal fields: %w", err)
	}
	var sub domain.Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	return sub, nil
}
