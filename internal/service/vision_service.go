package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"photodoctor/internal/config"
	"photodoctor/internal/knowledge"
	"photodoctor/internal/model"
)

// ErrVisionUnavailable means the model could not be reached after retries
var ErrVisionUnavailable = errors.New("vision service unavailable")

const unknownCrop = "작물(추정 필요)"

// VisionInput is one photo to read
type VisionInput struct {
	Image      []byte
	MIME       string
	CropHint   string
	RegionHint string
}

// ReadResult is either ValidRead or InvalidRead
type ReadResult interface {
	isReadResult()
}

// ValidRead carries a usable model read
type ValidRead struct {
	Read *model.VisionRead
}

// InvalidRead carries the reason the model output was rejected
type InvalidRead struct {
	Reason string
}

func (ValidRead) isReadResult()   {}
func (InvalidRead) isReadResult() {}

type rawRead struct {
	CropGuess struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"crop_guess"`
	PrimaryCategory string   `json:"primary_category"`
	Observations    []string `json:"observations"`
	DoctorNote      string   `json:"doctor_note"`
}

// ParseVisionOutput extracts the read from raw model text. Code fences and
// chatter around the JSON object are tolerated.
func ParseVisionOutput(raw string) ReadResult {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return InvalidRead{Reason: "no json object"}
	}

	var r rawRead
	if err := json.Unmarshal([]byte(s[start:end+1]), &r); err != nil {
		return InvalidRead{Reason: "decode: " + err.Error()}
	}

	var obs []string
	for _, o := range r.Observations {
		if o = strings.TrimSpace(o); o != "" {
			obs = append(obs, o)
		}
	}
	note := strings.TrimSpace(r.DoctorNote)
	if len(obs) == 0 && note == "" {
		return InvalidRead{Reason: "no observations"}
	}

	conf := r.CropGuess.Confidence
	if conf > 0 && conf <= 1 {
		conf *= 100
	}
	name := strings.TrimSpace(r.CropGuess.Name)
	if name == "" {
		name = unknownCrop
	}

	return ValidRead{Read: &model.VisionRead{
		CropGuess: model.CropGuess{
			Name:       name,
			Confidence: int(math.Max(0, math.Min(100, math.Round(conf)))),
		},
		PrimaryCategory: model.ParseCategory(r.PrimaryCategory),
		Observations:    obs,
		DoctorNote:      note,
	}}
}

// VisionService reads the farmer's photo once per session
type VisionService struct {
	kb     *knowledge.Bundle
	config *config.AIConfig
	gen    Generator
	log    *zap.Logger
	sleep  func(time.Duration)
}

// NewVisionService creates a vision service. A nil generator serves
// deterministic mock reads.
func NewVisionService(kb *knowledge.Bundle, cfg *config.AIConfig, gen Generator, logger *zap.Logger) *VisionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisionService{
		kb:     kb,
		config: cfg,
		gen:    gen,
		log:    logger,
		sleep:  time.Sleep,
	}
}

// Read performs the first read. Unusable model output yields a fallback read
// flagged as such; an unreachable model is an ErrVisionUnavailable.
func (s *VisionService) Read(ctx context.Context, in VisionInput) (*model.VisionRead, error) {
	if s.gen == nil {
		return s.mockRead(in), nil
	}

	data := struct {
		CropHint        string
		RegionHint      string
		MaxObservations int
	}{in.CropHint, in.RegionHint, s.config.MaxObservations}
	system, err := s.kb.RenderPrompt(knowledge.PromptVisionSystem, data)
	if err != nil {
		return nil, err
	}
	user, err := s.kb.RenderPrompt(knowledge.PromptVisionUser, data)
	if err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, system, user, in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVisionUnavailable, err)
	}

	var read *model.VisionRead
	switch r := ParseVisionOutput(raw).(type) {
	case ValidRead:
		read = r.Read
	case InvalidRead:
		s.log.Warn("[Vision] unusable model output", zap.String("reason", r.Reason))
		read = fallbackRead(in)
	}

	if limit := s.config.MaxObservations; limit > 0 && len(read.Observations) > limit {
		read.Observations = read.Observations[:limit]
	}
	read.CropHint = in.CropHint
	read.RegionHint = in.RegionHint
	return read, nil
}

func (s *VisionService) generate(ctx context.Context, system, user string, in VisionInput) (string, error) {
	attempts := s.config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := s.gen.Generate(ctx, system, user, in.Image, in.MIME)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		s.log.Warn("[Vision] generate failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < attempts {
			s.sleep(time.Duration(attempt) * 300 * time.Millisecond)
		}
	}
	return "", lastErr
}

func fallbackRead(in VisionInput) *model.VisionRead {
	name := strings.TrimSpace(in.CropHint)
	if name == "" {
		name = unknownCrop
	}
	return &model.VisionRead{
		CropGuess:    model.CropGuess{Name: name, Confidence: 50},
		Observations: []string{"사진을 받았습니다. 다만 정보가 더 필요합니다."},
		DoctorNote:   "사진만으로 단정하면 오판 위험이 있어요. 핵심부터 하나만 확인하겠습니다.",
		Fallback:     true,
		CropHint:     in.CropHint,
		RegionHint:   in.RegionHint,
	}
}

// mockRead is served when no API key is configured
func (s *VisionService) mockRead(in VisionInput) *model.VisionRead {
	name := strings.TrimSpace(in.CropHint)
	conf := 70
	if name == "" {
		name = unknownCrop
		conf = 30
	}
	return &model.VisionRead{
		CropGuess:    model.CropGuess{Name: name, Confidence: conf},
		Observations: []string{"잎 일부에 변색이 보입니다."},
		DoctorNote:   "사진만으로는 단정하기 어렵습니다. 몇 가지만 여쭤보겠습니다.",
		CropHint:     in.CropHint,
		RegionHint:   in.RegionHint,
	}
}
