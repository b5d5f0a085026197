package pantry

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/pantry-scanner/internal/auth"
	"github.com/zombor/pantry-scanner/internal/scanning"
)

const (
	maxJSONBodyBytes = 1 << 20

	// multipartOverhead leaves room for boundaries and part headers on top of the image limit
	multipartOverhead = 1 << 20
)

// writeJSON writes v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes an {"error": message} response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// scanErrorResponse maps a scan failure to a status and a message safe to show the client
func scanErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, scanning.ErrInference):
		return http.StatusInternalServerError, "Failed to read receipt"
	case errors.Is(err, scanning.ErrExtraction):
		return http.StatusInternalServerError, "Failed to extract items from receipt"
	case errors.Is(err, ErrPersistence):
		return http.StatusInternalServerError, "Failed to save pantry items"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// handleHealth answers liveness checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "Backend running")
}

const imageTooLargeMessage = "Image is too large. Please compress or resize it."

// handleScan reads the uploaded receipt image and adds its items to the caller's pantry
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		slog.Warn("Error parsing multipart form", "user", userID, "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, imageTooLargeMessage)
			return
		}
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("image")
	if err != nil {
		slog.Warn("No image in scan request", "user", userID, "error", err)
		writeError(w, http.StatusBadRequest, "No image provided")
		return
	}
	defer f.Close()

	if header.Size > s.config.MaxUploadBytes {
		slog.Warn("Image exceeds upload limit", "user", userID, "size", header.Size, "limit", s.config.MaxUploadBytes)
		writeError(w, http.StatusBadRequest, imageTooLargeMessage)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading image data", "user", userID, "filename", header.Filename, "error", err)
		writeError(w, http.StatusBadRequest, "Error reading image")
		return
	}

	items, err := s.service.Scan(r.Context(), ScanRequest{
		Image:       data,
		ContentType: uploadContentType(header.Header.Get("Content-Type"), header.Filename),
		UserID:      userID,
	})
	if err != nil {
		status, message := scanErrorResponse(err)
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// uploadContentType prefers the part's declared type and falls back to the file extension
func uploadContentType(declared, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// handleListPantry returns the caller's pantry records
func (s *Server) handleListPantry(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	records, err := s.service.Pantry(r.Context(), userID)
	if err != nil {
		slog.Error("Error listing pantry", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load pantry")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// handleGetProfile returns the caller's profile, creating it on first access
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	profile, err := s.service.Profile(r.Context(), userID)
	if err != nil {
		slog.Error("Error loading profile", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// handleUpdateProteinTarget validates and stores the caller's daily protein target
func (s *Server) handleUpdateProteinTarget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		ProteinTarget *float64 `json:"proteinTarget"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&req); err != nil || req.ProteinTarget == nil {
		slog.Warn("Invalid protein target body", "user", userID, "error", err)
		writeError(w, http.StatusBadRequest, "Invalid protein target")
		return
	}

	if err := s.service.SetProteinTarget(r.Context(), userID, *req.ProteinTarget); err != nil {
		if errors.Is(err, ErrValidation) {
			slog.Warn("Rejected protein target", "user", userID, "protein_target", *req.ProteinTarget)
			writeError(w, http.StatusBadRequest, "Invalid protein target")
			return
		}
		slog.Error("Error updating protein target", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update protein target")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Protein target updated",
		"proteinTarget": *req.ProteinTarget,
	})
}
