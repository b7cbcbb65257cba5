package handler

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"photodoctor/internal/service"
	"photodoctor/internal/transport/rest/middleware"
)

// PhotoHandler handles photo upload and download
type PhotoHandler struct {
	svc       *service.PhotoService
	maxUpload int64
	log       *zap.Logger
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(svc *service.PhotoService, maxUpload int64, logger *zap.Logger) *PhotoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &PhotoHandler{svc: svc, maxUpload: maxUpload, log: logger}
}

// Upload handles POST /v1/photos
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeFailure(w, h.log, requestID, service.ErrImageUnreadable)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeFailure(w, h.log, requestID, service.ErrImageUnreadable)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeFailure(w, h.log, requestID, service.ErrImageUnreadable)
		return
	}
	url, err := h.svc.Upload(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		writeFailure(w, h.log, requestID, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// Get handles GET /v1/photos/{id}
func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	photo, err := h.svc.Open(r.Context(), id)
	if err != nil {
		h.log.Error("[Photos] open failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load photo")
		return
	}
	if photo == nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	defer photo.Body.Close()

	w.Header().Set("Content-Type", photo.MIME)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, photo.Body); err != nil {
		h.log.Warn("[Photos] stream interrupted", zap.String("id", id), zap.Error(err))
	}
}
