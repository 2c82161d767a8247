package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"cloudalbum/model"
	"cloudalbum/service"
	"cloudalbum/storage"
)

// placeholderURL is returned as the fetch response body whenever the image
// cannot be served; that endpoint is consumed directly as an image source
// and must never answer with an error body.
const placeholderURL = "http://placehold.it/400x300"

type PhotoHandlers struct {
	Photos         *service.PhotoService
	Users          storage.UserDB
	Log            *zap.Logger
	SecretKey      string
	TokenTTL       time.Duration
	MaxUploadBytes int64
}

func (h *PhotoHandlers) ServeHTTP(mux *http.ServeMux) {
	wrap := func(next http.HandlerFunc) http.HandlerFunc {
		return RecoveryMiddleware(h.Log, RequestLoggerMiddleware(h.Log, next))
	}

	mux.HandleFunc("/users/signup", wrap(h.handleSignup))
	mux.HandleFunc("/users/signin", wrap(h.handleSignin))
	mux.HandleFunc("/photos/ping", wrap(h.authMiddleware(h.handlePing)))
	mux.HandleFunc("/photos/file", wrap(h.authMiddleware(h.handleUploadPhoto)))
	mux.HandleFunc("/photos", wrap(h.authMiddleware(h.handleListPhotos)))
	mux.HandleFunc("/photos/", wrap(h.authMiddleware(h.handleOnePhoto)))
}

func (h *PhotoHandlers) handlePing(w http.ResponseWriter, r *http.Request, _ model.CallerIdentity) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "pong"})
}

func (h *PhotoHandlers) handleUploadPhoto(w http.ResponseWriter, r *http.Request, ident model.CallerIdentity) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.ContentLength > h.MaxUploadBytes {
		h.Log.Warn("upload exceeds size limit",
			zap.Int64("content_length", r.ContentLength),
			zap.Int64("limit", h.MaxUploadBytes))
		http.Error(w, "File size exceeds limit", http.StatusRequestEntityTooLarge)
		return
	}

	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file found in the request", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.Log.Error("failed to read upload", zap.Error(err))
		http.Error(w, "File upload failed", http.StatusInternalServerError)
		return
	}

	fields := service.UploadFields{
		Tags:      r.FormValue("tags"),
		Desc:      r.FormValue("desc"),
		GeotagLat: r.FormValue("geotag_lat"),
		GeotagLng: r.FormValue("geotag_lng"),
		TakenDate: r.FormValue("taken_date"),
		Make:      r.FormValue("make"),
		Model:     r.FormValue("model"),
		Width:     r.FormValue("width"),
		Height:    r.FormValue("height"),
		City:      r.FormValue("city"),
		Nation:    r.FormValue("nation"),
		Address:   r.FormValue("address"),
	}

	err = h.Photos.Upload(r.Context(), ident, header.Filename, data, fields)
	if errors.Is(err, model.ErrUnsupportedFormat) {
		http.Error(w, "File format is not supported", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.Log.Error("file upload failed",
			zap.String("owner_id", ident.UserID), zap.Error(err))
		http.Error(w, "File upload failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *PhotoHandlers) handleListPhotos(w http.ResponseWriter, r *http.Request, ident model.CallerIdentity) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	photos, err := h.Photos.List(r.Context(), ident)
	if err != nil {
		h.Log.Error("photos list retrieving failed",
			zap.String("owner_id", ident.UserID), zap.Error(err))
		http.Error(w, "Photos list retrieving failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "photos": photos})
}

func (h *PhotoHandlers) handleOnePhoto(w http.ResponseWriter, r *http.Request, ident model.CallerIdentity) {
	photoID := strings.TrimPrefix(r.URL.Path, "/photos/")
	if photoID == "" || strings.Contains(photoID, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGetPhoto(w, r, ident, photoID)
	case http.MethodDelete:
		h.handleDeletePhoto(w, r, ident, photoID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PhotoHandlers) handleGetPhoto(w http.ResponseWriter, r *http.Request, ident model.CallerIdentity, photoID string) {
	data, contentType, err := h.Photos.Fetch(r.Context(), ident, photoID, r.URL.Query().Get("mode"))
	if err != nil {
		// Served straight into <img> tags; degrade to a placeholder
		// instead of surfacing the failure.
		h.Log.Error("get photo failed",
			zap.String("owner_id", ident.UserID),
			zap.String("photo_id", photoID),
			zap.Error(err))
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, placeholderURL)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *PhotoHandlers) handleDeletePhoto(w http.ResponseWriter, r *http.Request, ident model.CallerIdentity, photoID string) {
	err := h.Photos.Delete(r.Context(), ident, photoID)
	if errors.Is(err, model.ErrNotFound) {
		http.Error(w, "Photo not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("photo delete failed",
			zap.String("owner_id", ident.UserID),
			zap.String("photo_id", photoID),
			zap.Error(err))
		http.Error(w, "Photo delete failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "photos": map[string]string{"photo_id": photoID}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
