// Package chi exposes the conference API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/confbase/confbase/internal/domain"
	logpkg "github.com/confbase/confbase/internal/logger"
	affiliationuc "github.com/confbase/confbase/internal/usecase/affiliation"
	agendauc "github.com/confbase/confbase/internal/usecase/agenda"
	healthuc "github.com/confbase/confbase/internal/usecase/health"
	maileruc "github.com/confbase/confbase/internal/usecase/mailer"
	preferenceuc "github.com/confbase/confbase/internal/usecase/preference"
	profileuc "github.com/confbase/confbase/internal/usecase/profile"
	submissionuc "github.com/confbase/confbase/internal/usecase/submission"
)

// Error codes returned to the frontend.
type errorCode string

const (
	codeUnauthorized   errorCode = "unauthorized"
	codeBadRequest     errorCode = "bad_request"
	codeNotFound       errorCode = "not_found"
	codeBadGateway     errorCode = "upstream_error"
	codeNotImplemented errorCode = "not_implemented"
	codeInternalError  errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// dataResponse is the plain envelope of most endpoints.
type dataResponse struct {
	Data any `json:"data"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Verifier maps an Authorization header onto a user identity.
type Verifier interface {
	VerifyHeader(header string) (domain.Identity, error)
}

// Server wires the use case services onto the HTTP routes.
type Server struct {
	profiles      *profileuc.Service
	prefs         *preferenceuc.Service
	subs          *submissionuc.Service
	agenda        *agendauc.Service
	affiliations  *affiliationuc.Service
	mailer        *maileruc.Service
	health        *healthuc.Service
	verifier      Verifier
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server.
func NewServer(
	profiles *profileuc.Service,
	prefs *preferenceuc.Service,
	subs *submissionuc.Service,
	agenda *agendauc.Service,
	affiliations *affiliationuc.Service,
	mailer *maileruc.Service,
	health *healthuc.Service,
	verifier Verifier,
) *Server {
	s := &Server{
		profiles:     profiles,
		prefs:        prefs,
		subs:         subs,
		agenda:       agenda,
		affiliations: affiliations,
		mailer:       mailer,
		health:       health,
		verifier:     verifier,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, codeUnauthorized),
		sentinelHandler(domain.ErrBadAction, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrBadRequest, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrNoTableStore, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrPreferenceNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrSubmissionNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrEditionUnknown, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeBadGateway),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, codeNotImplemented),
	}
	return s
}

// Routes mounts every API route onto r. Identity extraction happens in
// IdentityMiddleware; handlers that need a user call requireIdentity.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/affiliation", s.getAffiliations)
	r.Post("/api/confirmation/{email_type}", s.sendConfirmation)
	r.Post("/api/migration", s.migrate)

	r.Get("/api/user", s.getUser)
	r.Post("/api/user", s.createUser)
	r.Put("/api/user", s.updateUser)

	r.Get("/api/user/preference", s.getAllVotes)
	r.Get("/api/user/preference/{edition}", s.getEditionVotes)
	r.Patch("/api/user/preference/{edition}/{submission_id}", s.updateVote)

	r.Get("/api/agenda/{edition}", s.getAgenda)

	r.Get("/api/abstract/{edition}", s.browseAbstracts)
	r.Get("/api/abstract/{edition}/{submission_id}", s.getAbstract)
	r.Post("/api/abstract/{edition}", s.createAbstract)
	r.Put("/api/abstract/{edition}/{submission_id}", s.updateAbstract)

	r.Get("/health", s.getHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func (s *Server) getAffiliations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	n, _ := strconv.Atoi(r.URL.Query().Get("n_results"))

	names, err := s.affiliations.Query(r.Context(), q, n)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: names})
}

func (s *Server) sendConfirmation(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	emailType := chi.URLParam(r, "email_type")

	if err := s.mailer.SendConfirmation(r.Context(), emailType, identity.Email); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{})
}

func (s *Server) migrate(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	if err := s.profiles.Migrate(r.Context(), identity.UserID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	profile, err := s.profiles.Get(r.Context(), identity.UserID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: profile})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}

	// The frontend sends {"id": ..., "payload": {...}}.
	var req struct {
		Payload domain.Profile `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	if err := s.profiles.Create(r.Context(), identity.UserID, req.Payload); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}

	var update domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	if err := s.profiles.Update(r.Context(), identity.UserID, update); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{})
}

func (s *Server) getAllVotes(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	votes, err := s.prefs.ListAll(r.Context(), identity.UserID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: votes})
}

func (s *Server) getEditionVotes(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	votes, err := s.prefs.ByEdition(r.Context(), identity.UserID, chi.URLParam(r, "edition"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: votes})
}

func (s *Server) updateVote(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	edition := chi.URLParam(r, "edition")
	submissionID := chi.URLParam(r, "submission_id")
	action := r.URL.Query().Get("action")

	if err := s.prefs.Update(r.Context(), identity.UserID, edition, submissionID, action); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{})
}

func (s *Server) getAgenda(w http.ResponseWriter, r *http.Request) {
	subs, err := s.agenda.Day(r.Context(), chi.URLParam(r, "edition"), r.URL.Query().Get("starttime"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: subs})
}

func (s *Server) browseAbstracts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skip, _ := strconv.Atoi(query.Get("skip"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	req := submissionuc.BrowseRequest{
		Edition:   chi.URLParam(r, "edition"),
		Query:     query.Get("q"),
		View:      query.Get("view"),
		Starttime: query.Get("starttime"),
		Endtime:   query.Get("endtime"),
		Skip:      skip,
		Limit:     limit,
	}
	// Identity is optional here: anonymous users browse the default view,
	// vote-based views just come back empty.
	if identity, ok := identityFrom(r.Context()); ok {
		req.UserID = identity.UserID
	}

	page, err := s.subs.Browse(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getAbstract(w http.ResponseWriter, r *http.Request) {
	edition := chi.URLParam(r, "edition")
	submissionID := chi.URLParam(r, "submission_id")

	sub, err := s.subs.Get(r.Context(), edition, submissionID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: sub})
}

func (s *Server) createAbstract(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	userID := ""
	if identity, ok := identityFrom(r.Context()); ok {
		userID = identity.UserID
	}

	id, err := s.subs.Create(r.Context(), userID, chi.URLParam(r, "edition"), &sub)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: map[string]string{"submission_id": id}})
}

func (s *Server) updateAbstract(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	edition := chi.URLParam(r, "edition")
	submissionID := chi.URLParam(r, "submission_id")
	if err := s.subs.Update(r.Context(), edition, submissionID, &sub); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// requireIdentity resolves the request identity or writes a 401.
func (s *Server) requireIdentity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "authorization required")
		return domain.Identity{}, false
	}
	return identity, true
}

// handleDomainError logs through the request-scoped logger installed by the
// canonical-log middleware, so error lines carry the request ID.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnauthorized,
		domain.ErrBadAction,
		domain.ErrBadRequest,
		domain.ErrNoTableStore,
		domain.ErrPreferenceNotFound,
		domain.ErrSubmissionNotFound,
		domain.ErrEditionUnknown,
		domain.ErrNotFound,
		domain.ErrEmbeddingProviderError,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
