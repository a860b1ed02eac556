package registryhandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timesheets/internal/domain/auth"
	"timesheets/internal/domain/registry"
	"timesheets/internal/transport/http/api"
	"timesheets/internal/transport/http/middleware"
	"timesheets/internal/transport/http/shared"
)

type Directory interface {
	GetContractor(ctx context.Context, tenantID, contractorID string) (registry.Contractor, error)
	ListContractors(ctx context.Context, tenantID string) ([]registry.Contractor, error)
	ListProjectsForContractor(ctx context.Context, tenantID, contractorID string) ([]registry.Project, error)
}

type Handler struct {
	Store Directory
	Perms middleware.PermissionStore
}

func NewHandler(store Directory, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermRegistryRead, h.Perms)
	r.Route("/contractors", func(r chi.Router) {
		r.With(read).Get("/", h.handleListContractors)
		r.With(read).Get("/{contractorID}", h.handleGetContractor)
		r.With(read).Get("/{contractorID}/projects", h.handleListProjects)
	})
}

// visible resolves the path contractor, treating "me" as the caller's own
// profile. Contractors only see themselves.
func visible(r *http.Request, user auth.UserContext) (string, bool) {
	id := chi.URLParam(r, "contractorID")
	if id == "me" {
		id = user.ContractorID
	}
	if id == "" {
		return "", false
	}
	if user.IsContractor() && id != user.ContractorID {
		return "", false
	}
	return id, true
}

func (h *Handler) handleListContractors(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if user.IsContractor() {
		c, err := h.Store.GetContractor(r.Context(), user.TenantID, user.ContractorID)
		if err != nil {
			shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, []registry.Contractor{c}, middleware.GetRequestID(r.Context()))
		return
	}

	items, err := h.Store.ListContractors(r.Context(), user.TenantID)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	if items == nil {
		items = []registry.Contractor{}
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetContractor(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := visible(r, user)
	if !ok {
		shared.FailError(w, r, registry.ErrContractorNotFound, middleware.GetRequestID(r.Context()))
		return
	}
	c, err := h.Store.GetContractor(r.Context(), user.TenantID, id)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	id, ok := visible(r, user)
	if !ok {
		shared.FailError(w, r, registry.ErrContractorNotFound, middleware.GetRequestID(r.Context()))
		return
	}
	projects, err := h.Store.ListProjectsForContractor(r.Context(), user.TenantID, id)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	if projects == nil {
		projects = []registry.Project{}
	}
	api.Success(w, projects, middleware.GetRequestID(r.Context()))
}
