package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/registry"
)

// version is set via -ldflags at build time
var version = "dev"

// SetVersion sets the version string (called from main).
func SetVersion(v string) {
	version = v
}

// Response types

type HealthResponse struct {
	Status string `json:"status"`
}

type VersionResponse struct {
	Version string `json:"version"`
}

type ResourceSummary struct {
	Key        string `json:"key"`
	Type       string `json:"type"`
	ID         string `json:"id"`
	Category   string `json:"category,omitempty"`
	Enabled    bool   `json:"enabled"`
	SourceRoot string `json:"source_root"`
	SourceHash string `json:"source_hash"`
}

type ListResourcesResponse struct {
	Type      string            `json:"type"`
	Count     int               `json:"count"`
	Resources []ResourceSummary `json:"resources"`
}

type ReloadStatusResponse struct {
	Type   string `json:"type"`
	Count  int    `json:"count"`
	Hits   int    `json:"hits"`
	Misses int    `json:"misses"`
	Errors int    `json:"errors"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: version})
}

func (s *Server) registryFor(w http.ResponseWriter, r *http.Request) *registry.Registry {
	typ := model.Type(chi.URLParam(r, "type"))
	reg := s.environment.Registry(typ)
	if reg == nil {
		writeError(w, http.StatusNotFound, "unknown resource type")
		return nil
	}
	return reg
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	reg := s.registryFor(w, r)
	if reg == nil {
		return
	}

	filters := registry.Filters{
		Category:    r.URL.Query().Get("category"),
		EnabledOnly: r.URL.Query().Get("enabled_only") != "false",
	}

	resources := reg.List(filters)
	summaries := make([]ResourceSummary, 0, len(resources))
	for _, res := range resources {
		summaries = append(summaries, toSummary(res))
	}

	writeJSON(w, http.StatusOK, ListResourcesResponse{
		Type:      string(reg.Type()),
		Count:     len(summaries),
		Resources: summaries,
	})
}

func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	reg := s.registryFor(w, r)
	if reg == nil {
		return
	}

	id := chi.URLParam(r, "id")
	key := model.QualifiedKey(reg.Type(), r.URL.Query().Get("category"), id)

	res, ok := reg.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "resource not found: "+key)
		return
	}

	writeJSON(w, http.StatusOK, toSummary(res))
}

func (s *Server) handleReloadStatus(w http.ResponseWriter, r *http.Request) {
	reg := s.registryFor(w, r)
	if reg == nil {
		return
	}

	stats := reg.Loader().Stats()
	writeJSON(w, http.StatusOK, ReloadStatusResponse{
		Type:   string(reg.Type()),
		Count:  reg.Count(),
		Hits:   stats.Hits,
		Misses: stats.Misses,
		Errors: stats.Errors,
	})
}

func toSummary(r *model.Resource) ResourceSummary {
	return ResourceSummary{
		Key:        r.QualifiedKey(),
		Type:       string(r.Type),
		ID:         r.ID,
		Category:   r.Category,
		Enabled:    r.Enabled,
		SourceRoot: r.SourceRoot,
		SourceHash: r.SourceHash,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
