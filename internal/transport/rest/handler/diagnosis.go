package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"photodoctor/internal/model"
	"photodoctor/internal/service"
	"photodoctor/internal/transport/rest/middleware"
)

// DiagnosisHandler handles the farmer-facing diagnosis endpoint
type DiagnosisHandler struct {
	svc       *service.DiagnosisService
	maxUpload int64
	log       *zap.Logger
}

// NewDiagnosisHandler creates a new diagnosis handler
func NewDiagnosisHandler(svc *service.DiagnosisService, maxUpload int64, logger *zap.Logger) *DiagnosisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &DiagnosisHandler{svc: svc, maxUpload: maxUpload, log: logger}
}

// Diagnose handles POST /v1/diagnose
func (h *DiagnosisHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))

	req, err := h.decode(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, h.log, requestID, service.ErrImageUnreadable)
			return
		}
		h.log.Info("[Diagnose] malformed request", zap.String("request_id", requestID), zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.svc.Diagnose(r.Context(), req)
	if err != nil {
		writeFailure(w, h.log, requestID, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DiagnosisHandler) decode(r *http.Request) (*model.DiagnoseRequest, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		return h.decodeMultipart(r)
	}

	var req model.DiagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// decodeMultipart reads action, crop, region, qid, answer (repeatable or a
// JSON array), history (JSON) and the image file.
func (h *DiagnosisHandler) decodeMultipart(r *http.Request) (*model.DiagnoseRequest, error) {
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return nil, err
	}
	req := &model.DiagnoseRequest{
		Action:     model.Action(strings.TrimSpace(r.FormValue("action"))),
		CropHint:   r.FormValue("crop"),
		RegionHint: r.FormValue("region"),
		QID:        r.FormValue("qid"),
	}
	for _, v := range r.MultipartForm.Value["answer"] {
		req.Answer = append(req.Answer, model.ParseAnswer(v)...)
	}
	if req.Answer.IsEmpty() {
		req.Answer = nil
	}
	if raw := strings.TrimSpace(r.FormValue("history")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.History); err != nil {
			return nil, err
		}
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		req.ImageData = r.FormValue("image")
		return req, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if req.Image, err = io.ReadAll(file); err != nil {
		return nil, err
	}
	req.ImageMIME = header.Header.Get("Content-Type")
	return req, nil
}
