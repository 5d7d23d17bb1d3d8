package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/svlns-gdc/journal-backend/health"
	"github.com/svlns-gdc/journal-backend/interfaces"
	"github.com/svlns-gdc/journal-backend/replication"
	"github.com/svlns-gdc/journal-backend/workflow"
)

// maxUploadSize is the maximum allowed multipart upload size (50MB).
const maxUploadSize = 50 * 1024 * 1024

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

// Handler processes HTTP requests for the journal storage service. It
// delegates uploads to the replication coordinator, reads to the location
// registry and usage tracker, and submission transitions to the workflow
// service.
type Handler struct {
	coordinator *replication.Coordinator
	monitor     *health.Monitor
	locations   interfaces.LocationRegistry
	usage       interfaces.UsageTracker
	workflow    *workflow.Service
	log         *slog.Logger
}

// NewHandler creates an HTTP request handler with the specified dependencies.
func NewHandler(coordinator *replication.Coordinator, monitor *health.Monitor, locations interfaces.LocationRegistry, usage interfaces.UsageTracker, wf *workflow.Service, log *slog.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		monitor:     monitor,
		locations:   locations,
		usage:       usage,
		workflow:    wf,
		log:         log,
	}
}

// HandleUploadFile stores an uploaded file with redundancy.
//
// URL format: POST /api/storage/files
// Multipart form fields:
//   - file: the payload (required)
//   - provider: primary provider type (required)
//   - entity_type: owning entity kind (required)
//   - entity_id: owning entity identifier (required)
//   - is_primary: whether this is the entity's primary file (optional)
//
// Response: the persisted file location as JSON.
func (h *Handler) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Request too large or malformed", http.StatusBadRequest)
		return
	}

	provider, err := interfaces.ParseProviderType(r.FormValue("provider"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entityType, err := parseEntityType(r.FormValue("entity_type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entityID := r.FormValue("entity_id")
	if entityID == "" {
		http.Error(w, "Missing entity_id", http.StatusBadRequest)
		return
	}

	isPrimary, _ := strconv.ParseBool(r.FormValue("is_primary"))

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error("Failed to read uploaded file", "err", err)
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "Empty file", http.StatusBadRequest)
		return
	}

	loc, err := h.coordinator.UploadWithRedundancy(r.Context(), replication.File{Name: header.Filename, Data: data}, provider, entityType, entityID, isPrimary)
	if err != nil {
		h.log.Error("Upload failed", "err", err,
			slog.String("provider", string(provider)),
			slog.String("filename", header.Filename))

		var uploadErr *interfaces.UploadError
		switch {
		case errors.Is(err, interfaces.ErrUnknownProvider):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &uploadErr):
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(loc); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleListFiles returns all stored files for an entity.
//
// URL format: GET /api/storage/files/{entity_type}/{entity_id}
func (h *Handler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	entityType, err := parseEntityType(chi.URLParam(r, "entity_type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entityID := chi.URLParam(r, "entity_id")

	files, err := h.locations.GetFileLocations(r.Context(), entityType, entityID)
	if err != nil {
		h.log.Error("Failed to list files", "err", err,
			slog.String("entityType", string(entityType)),
			slog.String("entityId", entityID))
		http.Error(w, "Failed to list files", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(files); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleReplicationStatus reports backup replication progress for a file.
//
// URL format: GET /api/storage/files/{file_id}/replication
func (h *Handler) HandleReplicationStatus(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")

	state, err := h.coordinator.Status(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to load replication status", "err", err, slog.String("fileId", fileID))
		http.Error(w, "Failed to load replication status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleStorageHealth probes every configured provider.
//
// URL format: GET /api/storage/health
//
// Response: JSON map of provider type to reachability.
func (h *Handler) HandleStorageHealth(w http.ResponseWriter, r *http.Request) {
	results := h.monitor.CheckStorageHealth(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleGetUsage returns per-provider storage usage figures.
//
// URL format: GET /api/storage/usage
func (h *Handler) HandleGetUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.usage.GetStorageUsage(r.Context())
	if err != nil {
		h.log.Error("Failed to load storage usage", "err", err)
		http.Error(w, "Failed to load storage usage", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(usage); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

type updateUsageRequest struct {
	ProviderType string  `json:"provider_type"`
	UsedSpaceMB  float64 `json:"used_space_mb"`
	TotalSpaceMB float64 `json:"total_space_mb"`
}

// HandleUpdateUsage upserts the usage gauge for one provider.
//
// URL format: PUT /api/storage/usage
func (h *Handler) HandleUpdateUsage(w http.ResponseWriter, r *http.Request) {
	var req updateUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	provider, err := interfaces.ParseProviderType(req.ProviderType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UsedSpaceMB < 0 || req.TotalSpaceMB <= 0 {
		http.Error(w, "Invalid usage figures", http.StatusBadRequest)
		return
	}

	if err := h.usage.UpdateStorageUsage(r.Context(), provider, req.UsedSpaceMB, req.TotalSpaceMB); err != nil {
		h.log.Error("Failed to update storage usage", "err", err, slog.String("provider", string(provider)))
		http.Error(w, "Failed to update storage usage", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type submissionStatusRequest struct {
	Status string `json:"status"`
}

// HandleSubmissionStatus transitions a submission to a new workflow status.
//
// URL format: POST /api/submissions/{submission_id}/status
// Request body: {"status": "<new status>"}
//
// Responds 409 when the transition is not allowed from the current status.
func (h *Handler) HandleSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "submission_id")

	var req submissionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status, err := workflow.ParseStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.workflow.Transition(r.Context(), submissionID, status); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, interfaces.ErrNotFound):
			http.Error(w, "Submission not found", http.StatusNotFound)
		default:
			h.log.Error("Failed to transition submission", "err", err, slog.String("submissionId", submissionID))
			http.Error(w, "Failed to transition submission", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"id": submissionID, "status": string(status)}); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func parseEntityType(s string) (interfaces.EntityType, error) {
	switch et := interfaces.EntityType(s); et {
	case interfaces.EntityArticle, interfaces.EntityIssue, interfaces.EntityReview,
		interfaces.EntityAuthorProfile, interfaces.EntitySupplementary:
		return et, nil
	default:
		return "", fmt.Errorf("unknown entity type: %q", s)
	}
}
