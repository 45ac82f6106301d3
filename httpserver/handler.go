package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/filatag/spool-scanner/interfaces"
	"github.com/filatag/spool-scanner/materials"
	"github.com/filatag/spool-scanner/metrics"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// appendRequest is the scan submission body posted by scanners. The
// trayUid may be the scanner's missing-tray sentinel; it is recorded as
// sent, since the sentinel doubles as the dedupe key for incomplete tags.
type appendRequest struct {
	Code    string `json:"code"`
	TrayUID string `json:"trayUid"`
	ChipUID string `json:"chipUid,omitempty"`
}

// Handler processes append-service requests against a scan store and the
// served material store index.
type Handler struct {
	store interfaces.ScanStore
	log   *slog.Logger

	mu     sync.RWMutex
	matset *materials.Table
}

// NewHandler creates a handler over the given store. The initial
// material index is the built-in table until an upload replaces it.
func NewHandler(store interfaces.ScanStore, log *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		log:    log,
		matset: materials.Builtin(),
	}
}

// HandleAppendScan records one scan, deduplicating on (code, trayUid).
//
// URL format: POST /api/v1/scans
// Request body: {"code":"10100","trayUid":"...","chipUid":"..."}
// Response: {"status":"recorded"} or {"status":"duplicate"}
func (h *Handler) HandleAppendScan(w http.ResponseWriter, r *http.Request) {
	var req appendRequest
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.log.Error("Failed to parse scan submission", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Code == "" || req.Code == interfaces.UnresolvedCode {
		http.Error(w, "Missing or unresolved filament code", http.StatusBadRequest)
		return
	}
	if req.TrayUID == "" {
		http.Error(w, "Missing tray identifier", http.StatusBadRequest)
		return
	}

	entry := interfaces.ScanEntry{
		Code:       req.Code,
		TrayUID:    req.TrayUID,
		ChipUID:    req.ChipUID,
		RecordedAt: time.Now().UTC(),
	}

	recorded, err := h.store.Append(r.Context(), entry)
	if err != nil {
		h.log.Error("Failed to append scan", "err", err,
			slog.String("code", req.Code), slog.String("trayUid", req.TrayUID))
		http.Error(w, "Failed to record scan", http.StatusInternalServerError)
		return
	}

	status := "recorded"
	if !recorded {
		status = "duplicate"
	}
	metrics.AppendsTotal.WithLabelValues(status).Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": status}); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleListScans returns all recorded scans in append order.
//
// URL format: GET /api/v1/scans
func (h *Handler) HandleListScans(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error("Failed to list scans", "err", err)
		http.Error(w, "Failed to list scans", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleUploadMaterials replaces the served store index with the posted
// JSON array of material records.
//
// URL format: POST /api/v1/materials
func (h *Handler) HandleUploadMaterials(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	table, err := materials.LoadJSON(body)
	if err != nil {
		h.log.Error("Failed to parse material upload", "err", err)
		http.Error(w, "Invalid materials body", http.StatusBadRequest)
		return
	}
	if table.Len() == 0 {
		http.Error(w, "Empty materials upload", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.matset = table
	h.mu.Unlock()

	h.log.Info("Material index replaced", "entries", table.Len())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":  "uploaded",
		"records": table.Len(),
	}); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleListMaterials serves the current store index.
//
// URL format: GET /api/v1/materials
func (h *Handler) HandleListMaterials(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	entries := h.matset.Entries()
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
