package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photodoctor/internal/config"
	"photodoctor/internal/engine"
	"photodoctor/internal/knowledge"
	"photodoctor/internal/model"
	"photodoctor/internal/service"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type downReader struct{}

func (downReader) Read(ctx context.Context, in service.VisionInput) (*model.VisionRead, error) {
	return nil, errors.Join(service.ErrVisionUnavailable, errors.New("connection refused: 10.0.0.3:443"))
}

func newDiagnosisHandler(t *testing.T, reader service.VisionReader) *DiagnosisHandler {
	t.Helper()
	kb := knowledge.MustDefault()
	if reader == nil {
		reader = service.NewVisionService(kb, &config.AIConfig{}, nil, nil)
	}
	svc := service.NewDiagnosisService(engine.New(kb, engine.DefaultOptions()), reader, nil, nil, nil, service.DiagnosisOptions{}, nil)
	return NewDiagnosisHandler(svc, 1<<20, nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/diagnose", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

type questionBody struct {
	OK       bool                `json:"ok"`
	Phase    string              `json:"phase"`
	Question model.QuestionView  `json:"question"`
	Progress model.Progress      `json:"progress"`
	History  []model.HistoryItem `json:"history"`
}

func TestDiagnoseJSONRoundTrip(t *testing.T) {
	h := newDiagnosisHandler(t, nil)

	rec := postJSON(t, h.Diagnose, map[string]interface{}{
		"action": "start",
		"image":  "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes),
		"crop":   "고추",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var first questionBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.True(t, first.OK)
	assert.Equal(t, "QUESTION", first.Phase)
	require.NotEmpty(t, first.Question.ID)
	require.Len(t, first.History, 1)
	assert.Equal(t, 0, first.Progress.Asked)

	answer := "잘 모르겠어요"
	if len(first.Question.Choices) > 0 {
		answer = first.Question.Choices[0]
	}
	rec = postJSON(t, h.Diagnose, map[string]interface{}{
		"action":  "answer",
		"qid":     first.Question.ID,
		"answer":  answer,
		"history": first.History,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var second questionBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, "QUESTION", second.Phase)
	assert.Len(t, second.History, 2)
	assert.NotEqual(t, first.Question.ID, second.Question.ID)
	assert.Equal(t, 1, second.Progress.Asked)
}

func TestDiagnoseMultipart(t *testing.T) {
	h := newDiagnosisHandler(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("action", "start"))
	require.NoError(t, mw.WriteField("crop", "오이"))
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="image"; filename="leaf.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	part.Write(pngBytes)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/diagnose", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Diagnose(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp questionBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "QUESTION", resp.Phase)
	assert.Equal(t, "오이", resp.History[0].Read.CropGuess.Name)
}

func TestDecodeMultipartAnswer(t *testing.T) {
	h := newDiagnosisHandler(t, nil)

	tests := []struct {
		name   string
		fields []string
		want   model.Answer
	}{
		{"single", []string{"예"}, model.Answer{"예"}},
		{"repeated fields", []string{"작은 벌레가 떼로 붙어 있다", "하얀 곰팡이 가루"}, model.Answer{"작은 벌레가 떼로 붙어 있다", "하얀 곰팡이 가루"}},
		{"json array", []string{`["작은 벌레가 떼로 붙어 있다","하얀 곰팡이 가루"]`}, model.Answer{"작은 벌레가 떼로 붙어 있다", "하얀 곰팡이 가루"}},
		{"blank", []string{"  "}, nil},
		{"missing", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			require.NoError(t, mw.WriteField("action", "answer"))
			require.NoError(t, mw.WriteField("qid", "G2_LEAF_BACK"))
			for _, f := range tt.fields {
				require.NoError(t, mw.WriteField("answer", f))
			}
			require.NoError(t, mw.Close())

			req := httptest.NewRequest(http.MethodPost, "/v1/diagnose", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			got, err := h.decode(req)
			require.NoError(t, err)
			assert.Equal(t, "G2_LEAF_BACK", got.QID)
			assert.Equal(t, tt.want, got.Answer)
		})
	}
}

func TestDiagnoseFailuresAreFarmerSafe(t *testing.T) {
	tests := []struct {
		name       string
		reader     service.VisionReader
		body       map[string]interface{}
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not a photo",
			body:       map[string]interface{}{"action": "start", "image": base64.StdEncoding.EncodeToString([]byte("hello"))},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "image_unreadable",
		},
		{
			name:       "answer with no session",
			body:       map[string]interface{}{"action": "answer", "qid": "D1_LESION", "answer": "예"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "image_unreadable",
		},
		{
			name:       "model unreachable",
			reader:     downReader{},
			body:       map[string]interface{}{"action": "start", "image": base64.StdEncoding.EncodeToString(pngBytes)},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "service_unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newDiagnosisHandler(t, tt.reader)
			rec := postJSON(t, h.Diagnose, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var f failure
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
			assert.False(t, f.OK)
			assert.Equal(t, tt.wantCode, f.Error)
			assert.True(t, f.Retry)
			assert.NotEmpty(t, f.Message)
			assert.NotContains(t, rec.Body.String(), "10.0.0.3")
		})
	}
}

func TestDiagnoseMalformedBody(t *testing.T) {
	h := newDiagnosisHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/diagnose", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Diagnose(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type memIncidents struct {
	items []*model.Incident
}

func (m *memIncidents) EnsureIndexes(ctx context.Context)                       {}
func (m *memIncidents) Create(ctx context.Context, inc *model.Incident) error   { return nil }
func (m *memIncidents) Finalize(ctx context.Context, inc *model.Incident) error { return nil }
func (m *memIncidents) List(ctx context.Context, limit int) ([]*model.Incident, error) {
	if limit > 0 && limit < len(m.items) {
		return m.items[:limit], nil
	}
	return m.items, nil
}
func (m *memIncidents) GetByID(ctx context.Context, id string) (*model.Incident, error) {
	for _, inc := range m.items {
		if inc.ID == id {
			return inc, nil
		}
	}
	return nil, nil
}

func TestIncidentHandler(t *testing.T) {
	repo := &memIncidents{items: []*model.Incident{
		{ID: "s-2", Status: model.IncidentNeedReview, RiskLevel: model.RiskHigh},
		{ID: "s-1", Status: model.IncidentFinalized, RiskLevel: model.RiskLow},
	}}
	h := NewIncidentHandler(service.NewIncidentService(repo), nil)
	r := mux.NewRouter()
	r.HandleFunc("/v1/incidents", h.List)
	r.HandleFunc("/v1/incidents/{id}", h.Get)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/incidents?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Incident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "s-2", list[0].ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/incidents/s-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var inc model.Incident
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inc))
	assert.Equal(t, model.IncidentFinalized, inc.Status)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/incidents/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
