package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
	"github.com/replicatedhq/kots-sub006/internal/logging"
)

type liveConfigRequest struct {
	ConfigGroups []appconfig.ConfigGroup `json:"configGroups"`
	Sequence     int64                   `json:"sequence"`
}

type liveConfigResponse struct {
	ConfigGroups     []appconfig.ConfigGroup           `json:"configGroups"`
	ValidationErrors []appconfig.GroupValidationErrors `json:"validationErrors,omitempty"`
}

type saveValuesRequest struct {
	ConfigGroups     []appconfig.ConfigGroup `json:"configGroups"`
	Sequence         int64                   `json:"sequence"`
	CreateNewVersion bool                    `json:"createNewVersion"`
}

type saveValuesResponse struct {
	Success          bool                              `json:"success"`
	Sequence         int64                             `json:"sequence,omitempty"`
	RequiredItems    []string                          `json:"requiredItems,omitempty"`
	Error            string                            `json:"error,omitempty"`
	ValidationErrors []appconfig.GroupValidationErrors `json:"validationErrors,omitempty"`
}

type configResponse struct {
	ConfigGroups      []appconfig.ConfigGroup `json:"configGroups"`
	DownstreamVersion int64                   `json:"downstreamVersion"`
}

// Router builds the console API routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/app/{slug}/config/{sequence:[0-9]+}",
		instrument("get_config", s.handleGetConfig)).Methods(http.MethodGet)
	api.HandleFunc("/app/{slug}/liveconfig",
		instrument("liveconfig", s.handleLiveConfig)).Methods(http.MethodPost)
	api.HandleFunc("/app/{slug}/config/{sequence:[0-9]+}/values",
		instrument("save_values", s.handleSaveValues)).Methods(http.MethodPut)
	api.HandleFunc("/app/{slug}/config/{sequence:[0-9]+}/files/{filename}",
		instrument("download_file", s.handleDownloadFile)).Methods(http.MethodGet)
	api.HandleFunc("/app/{slug}/validation/ws", s.hub.HandleSubscribe)

	r.HandleFunc("/healthz", instrument("healthz", s.handleHealthz)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	slug, sequence := pathParams(r)

	groups, err := s.store.GetConfig(slug, sequence)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, configResponse{
		ConfigGroups:      groups,
		DownstreamVersion: sequence,
	})
}

// handleLiveConfig recomputes validation for a submitted tree and echoes it
// back with the overlay. Subscribers on the websocket stream receive the
// same overlay.
func (s *Server) handleLiveConfig(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	start := time.Now()

	var req liveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed liveconfig request: "+err.Error())
		return
	}

	overlay := appconfig.EvaluateValidation(req.ConfigGroups)
	observeLiveValidation(start)

	logging.LogValidationPass(slug, req.Sequence, len(overlay))

	s.hub.Broadcast(ValidationEvent{
		AppSlug:          slug,
		Sequence:         req.Sequence,
		ValidationErrors: overlay,
	})

	writeJSON(w, http.StatusOK, liveConfigResponse{
		ConfigGroups:     req.ConfigGroups,
		ValidationErrors: overlay,
	})
}

// handleSaveValues persists a tree if it has no missing required items and
// no validation failures. Rejections carry their details in the body.
func (s *Server) handleSaveValues(w http.ResponseWriter, r *http.Request) {
	slug, sequence := pathParams(r)

	var req saveValuesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed save request: "+err.Error())
		return
	}

	if missing := appconfig.RequiredItems(req.ConfigGroups); len(missing) > 0 {
		saveRejectionsTotal.WithLabelValues("required_items").Inc()
		logging.Warn("Rejecting save with missing required items",
			zap.String("app_slug", slug),
			zap.Strings("required_items", missing),
		)
		writeJSON(w, http.StatusBadRequest, saveValuesResponse{
			Success:       false,
			RequiredItems: missing,
		})
		return
	}

	if overlay := appconfig.EvaluateValidation(req.ConfigGroups); len(overlay) > 0 {
		saveRejectionsTotal.WithLabelValues("validation").Inc()
		writeJSON(w, http.StatusBadRequest, saveValuesResponse{
			Success:          false,
			Error:            "config is invalid",
			ValidationErrors: overlay,
		})
		return
	}

	saved, err := s.store.SaveValues(slug, sequence, req.ConfigGroups, req.CreateNewVersion)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	logging.Info("Config saved",
		zap.String("app_slug", slug),
		zap.Int64("sequence", saved),
		zap.Bool("new_version", req.CreateNewVersion),
	)
	writeJSON(w, http.StatusOK, saveValuesResponse{Success: true, Sequence: saved})
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	slug, sequence := pathParams(r)
	filename := mux.Vars(r)["filename"]

	data, err := s.store.GetFile(slug, sequence, filename)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(data)
}

func pathParams(r *http.Request) (slug string, sequence int64) {
	vars := mux.Vars(r)
	sequence, _ = strconv.ParseInt(vars["sequence"], 10, 64)
	return vars["slug"], sequence
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
