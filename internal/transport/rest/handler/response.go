package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"photodoctor/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// failure is the only error shape a farmer ever sees
type failure struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

var failureMessages = map[string]string{
	"image_unreadable":    "사진을 읽지 못했습니다. 잎이 잘 보이도록 다시 찍어 보내 주세요.",
	"service_unavailable": "지금은 진단 서버에 연결할 수 없습니다. 잠시 후 다시 시도해 주세요.",
}

// writeFailure logs the internal error and sends the farmer-safe version
func writeFailure(w http.ResponseWriter, log *zap.Logger, requestID string, err error) {
	code := service.UserError(err)
	status := http.StatusServiceUnavailable
	if code == "image_unreadable" {
		status = http.StatusUnprocessableEntity
	}
	log.Warn("[Diagnose] request failed",
		zap.String("request_id", requestID),
		zap.String("code", code),
		zap.Error(err))
	writeJSON(w, status, failure{
		Error:   code,
		Message: failureMessages[code],
		Retry:   true,
	})
}
