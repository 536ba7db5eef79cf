package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grantcore/internal/core"
	"grantcore/pkg/domain"
)

// Caller identity headers. Authentication happens upstream; the API trusts
// these headers and turns them into the explicit caller passed to the core.
const (
	headerCallerID     = "X-Caller-ID"
	headerCallerRole   = "X-Caller-Role"
	headerCallerOffice = "X-Caller-Office"
)

// Server hosts the proposal HTTP API.
type Server struct {
	svc    *core.Service
	logger *slog.Logger
	router chi.Router
}

// NewServer wires the routes for the given service.
func NewServer(svc *core.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/programs", s.handleListPrograms)
		api.Post("/programs/{programID}/proposals", s.handleCreateProposal)
		api.Get("/proposals", s.handleListProposals)
		api.Get("/proposals/{proposalID}", s.handleGetProposal)
		api.Put("/proposals/{proposalID}", s.handleUpdateProposal)
		api.Delete("/proposals/{proposalID}", s.handleDeleteProposal)
		api.Post("/proposals/{proposalID}/status", s.handleSetStatus)
		api.Get("/proponents", s.handleSearchProponents)
		api.Get("/collaborators", s.handleSearchCollaborators)
		api.Get("/beneficiaries", s.handleSearchBeneficiaries)
		api.Post("/users", s.handleRegisterUser)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) caller(w http.ResponseWriter, r *http.Request) (core.Caller, bool) {
	id := strings.TrimSpace(r.Header.Get(headerCallerID))
	if id == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "caller identity headers missing", nil)
		return core.Caller{}, false
	}
	return core.Caller{
		ID:       id,
		Role:     domain.ParseRole(r.Header.Get(headerCallerRole)),
		OfficeID: strings.TrimSpace(r.Header.Get(headerCallerOffice)),
	}, true
}

type personPayload struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Sex  string `json:"sex,omitempty"`
}

type beneficiaryPayload struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Leader    string `json:"leader"`
	LeaderSex string `json:"leader_sex"`
	Male      int    `json:"male"`
	Female    int    `json:"female"`
}

type proposalPayload struct {
	Title        string             `json:"title"`
	Details      string             `json:"details"`
	ProjectType  *string            `json:"project_type,omitempty"`
	Proponent    personPayload      `json:"proponent"`
	Collaborator personPayload      `json:"collaborator"`
	Beneficiary  beneficiaryPayload `json:"beneficiary"`
}

func (p proposalPayload) toInput() core.ProposalInput {
	return core.ProposalInput{
		Title:       p.Title,
		Details:     p.Details,
		ProjectType: p.ProjectType,
		Proponent: core.ProponentInput{
			ID:   p.Proponent.ID,
			Name: strings.TrimSpace(p.Proponent.Name),
			Sex:  domain.Sex(p.Proponent.Sex),
		},
		Collaborator: core.CollaboratorInput{
			ID:   p.Collaborator.ID,
			Name: strings.TrimSpace(p.Collaborator.Name),
		},
		Beneficiary: core.BeneficiaryInput{
			ID:        p.Beneficiary.ID,
			Group:     strings.TrimSpace(p.Beneficiary.Name),
			Leader:    strings.TrimSpace(p.Beneficiary.Leader),
			LeaderSex: domain.Sex(p.Beneficiary.LeaderSex),
			Male:      p.Beneficiary.Male,
			Female:    p.Beneficiary.Female,
		},
	}
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var payload proposalPayload
	if err := readJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed json body", nil)
		return
	}
	created, _, err := s.svc.CreateProposal(r.Context(), caller, chi.URLParam(r, "programID"), payload.toInput())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var payload proposalPayload
	if err := readJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed json body", nil)
		return
	}
	updated, _, err := s.svc.UpdateProposal(r.Context(), caller, chi.URLParam(r, "proposalID"), payload.toInput())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	if _, err := s.svc.DeleteProposal(r.Context(), caller, chi.URLParam(r, "proposalID")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	detail, err := s.svc.GetProposal(r.Context(), caller, chi.URLParam(r, "proposalID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	result, err := s.svc.ListProposals(r.Context(), caller, core.ListQuery{
		Search:  strings.TrimSpace(q.Get("search")),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed json body", nil)
		return
	}
	updated, _, err := s.svc.SetProposalStatus(r.Context(), caller, chi.URLParam(r, "proposalID"), domain.Status(payload.Status))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleSearchProponents(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.caller(w, r); !ok {
		return
	}
	items, err := s.svc.SearchProponents(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleSearchCollaborators(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.caller(w, r); !ok {
		return
	}
	items, err := s.svc.SearchCollaborators(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleSearchBeneficiaries(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.caller(w, r); !ok {
		return
	}
	items, err := s.svc.SearchBeneficiaries(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.svc.ListPrograms(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": programs})
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.caller(w, r); !ok {
		return
	}
	var payload struct {
		ID        string `json:"id,omitempty"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
		OfficeID  string `json:"office_id,omitempty"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed json body", nil)
		return
	}
	user := domain.User{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Role:      domain.Role(payload.Role),
		OfficeID:  payload.OfficeID,
	}
	user.ID = payload.ID
	stored, _, err := s.svc.RegisterUser(r.Context(), user)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}
