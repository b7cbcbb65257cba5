package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"photodoctor/internal/cache"
	"photodoctor/internal/engine"
	"photodoctor/internal/model"
	"photodoctor/internal/repository"
)

// VisionReader performs the first photo read
type VisionReader interface {
	Read(ctx context.Context, in VisionInput) (*model.VisionRead, error)
}

// DiagnosisOptions tunes the diagnosis service
type DiagnosisOptions struct {
	AuditTimeout time.Duration
	ReadTimeout  time.Duration
	Source       string
}

// DiagnosisService runs one round-trip of a diagnosis session. It holds no
// per-session state; the history carried by the client is the session.
type DiagnosisService struct {
	engine    *engine.Engine
	vision    VisionReader
	cache     cache.VisionCache
	incidents repository.IncidentRepo
	photos    *PhotoService
	opts      DiagnosisOptions
	log       *zap.Logger

	broadcaster Broadcaster
	reads       singleflight.Group
	audits      sync.WaitGroup
}

// NewDiagnosisService creates a diagnosis service. cache, incidents and
// photos may be nil.
func NewDiagnosisService(eng *engine.Engine, vision VisionReader, visionCache cache.VisionCache, incidents repository.IncidentRepo, photos *PhotoService, opts DiagnosisOptions, logger *zap.Logger) *DiagnosisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.AuditTimeout <= 0 {
		opts.AuditTimeout = 5 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 90 * time.Second
	}
	if opts.Source == "" {
		opts.Source = "web"
	}
	return &DiagnosisService{
		engine:    eng,
		vision:    vision,
		cache:     visionCache,
		incidents: incidents,
		photos:    photos,
		opts:      opts,
		log:       logger,
	}
}

// SetBroadcaster sets the broadcaster for incident events
func (s *DiagnosisService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Diagnose handles a start or answer request and returns the next QUESTION
// or the FINAL result.
func (s *DiagnosisService) Diagnose(ctx context.Context, req *model.DiagnoseRequest) (model.Response, error) {
	if req.Action == model.ActionStart || !hasFirstRead(req.History) {
		if len(req.Image) == 0 && strings.TrimSpace(req.ImageData) == "" {
			return nil, ErrImageUnreadable
		}
		return s.start(ctx, req)
	}
	return s.answer(ctx, req)
}

// Wait blocks until pending audit writes finish
func (s *DiagnosisService) Wait() {
	s.audits.Wait()
}

func (s *DiagnosisService) start(ctx context.Context, req *model.DiagnoseRequest) (model.Response, error) {
	data, declared := req.Image, req.ImageMIME
	if len(data) == 0 {
		var hint string
		var err error
		data, hint, err = DecodeImageData(req.ImageData)
		if err != nil {
			return nil, err
		}
		if declared == "" {
			declared = hint
		}
	}
	mime, err := ImageMIME(declared, data)
	if err != nil {
		return nil, err
	}

	in := VisionInput{
		Image:      data,
		MIME:       mime,
		CropHint:   strings.TrimSpace(req.CropHint),
		RegionHint: strings.TrimSpace(req.RegionHint),
	}
	read, err := s.firstRead(ctx, in)
	if err != nil {
		return nil, err
	}
	read.SessionID = uuid.NewString()

	if s.photos != nil {
		if url, err := s.photos.Store(ctx, data, mime); err != nil {
			s.log.Warn("[Diagnosis] photo store failed", zap.String("session", read.SessionID), zap.Error(err))
		} else {
			read.ImageURL = url
		}
	}

	history := []model.HistoryItem{model.FirstReadTurn(read)}
	resp, err := s.engine.Step(history)
	if err != nil {
		return nil, err
	}

	s.log.Info("[Diagnosis] session started",
		zap.String("session", read.SessionID),
		zap.String("crop", read.CropGuess.Name),
		zap.String("category", string(read.PrimaryCategory)),
		zap.Bool("fallback", read.Fallback))
	s.recordCreated(ctx, read)
	if final, ok := resp.(*model.FinalResponse); ok {
		s.recordFinal(ctx, read, final)
	}
	return resp, nil
}

func (s *DiagnosisService) answer(ctx context.Context, req *model.DiagnoseRequest) (model.Response, error) {
	history := make([]model.HistoryItem, 0, len(req.History)+1)
	history = append(history, req.History...)
	if qid := strings.TrimSpace(req.QID); qid != "" {
		history = append(history, model.FarmerTurn(qid, req.Answer))
	}

	resp, err := s.engine.Step(history)
	if errors.Is(err, engine.ErrNoFirstRead) {
		return nil, ErrImageUnreadable
	}
	if err != nil {
		return nil, err
	}

	if final, ok := resp.(*model.FinalResponse); ok {
		if read := firstRead(final.History); read != nil {
			s.recordFinal(ctx, read, final)
		}
	}
	return resp, nil
}

// firstRead serves the read from cache, coalescing identical concurrent
// reads into one model call. The shared call outlives any single caller,
// bounded by ReadTimeout.
func (s *DiagnosisService) firstRead(ctx context.Context, in VisionInput) (*model.VisionRead, error) {
	key := cache.VisionKey(in.Image, in.CropHint)

	ch := s.reads.DoChan(key, func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ReadTimeout)
		defer cancel()

		if s.cache != nil {
			cached, err := s.cache.GetRead(readCtx, key)
			if err != nil {
				s.log.Warn("[Diagnosis] vision cache read failed", zap.Error(err))
			} else if cached != nil {
				return cached, nil
			}
		}

		read, err := s.vision.Read(readCtx, in)
		if err != nil {
			return nil, err
		}
		// fallback reads are retried on the next upload
		if s.cache != nil && !read.Fallback {
			if err := s.cache.SetRead(readCtx, key, read); err != nil {
				s.log.Warn("[Diagnosis] vision cache write failed", zap.Error(err))
			}
		}
		return read, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}

	read := *res.Val.(*model.VisionRead)
	read.Observations = append([]string(nil), read.Observations...)
	read.CropHint = in.CropHint
	read.RegionHint = in.RegionHint
	return &read, nil
}

func (s *DiagnosisService) recordCreated(ctx context.Context, read *model.VisionRead) {
	inc := &model.Incident{
		ID:              read.SessionID,
		Status:          model.IncidentVisionDone,
		Source:          s.opts.Source,
		Crop:            read.CropGuess.Name,
		Region:          read.RegionHint,
		PrimaryCategory: read.PrimaryCategory,
		VisionSummary:   read.DoctorNote,
		Observations:    read.Observations,
		CreatedAt:       time.Now(),
	}
	if read.ImageURL != "" {
		inc.ImageURLs = []string{read.ImageURL}
	}
	s.broadcast(EventIncidentCreated, *inc)
	s.audit(ctx, "create", inc, func(ctx context.Context) error {
		return s.incidents.Create(ctx, inc)
	})
}

func (s *DiagnosisService) recordFinal(ctx context.Context, read *model.VisionRead, final *model.FinalResponse) {
	final.IncidentID = read.SessionID

	status := model.IncidentFinalized
	if final.RiskLevel == model.RiskHigh {
		status = model.IncidentNeedReview
	}
	inc := &model.Incident{
		ID:              read.SessionID,
		Status:          status,
		Source:          s.opts.Source,
		Crop:            final.CropGuess.Name,
		Region:          read.RegionHint,
		PrimaryCategory: final.PrimaryCategory,
		VisionSummary:   read.DoctorNote,
		Observations:    read.Observations,
		PossibleCauses:  final.PossibleCauses,
		RiskLevel:       final.RiskLevel,
		Need119:         final.Need119,
		QuestionsAsked:  countAnswers(final.History),
	}
	if read.ImageURL != "" {
		inc.ImageURLs = []string{read.ImageURL}
	}

	s.log.Info("[Diagnosis] session finalized",
		zap.String("session", read.SessionID),
		zap.String("category", string(final.PrimaryCategory)),
		zap.String("risk", string(final.RiskLevel)),
		zap.Int("questions", inc.QuestionsAsked))
	s.broadcast(EventIncidentFinalized, *inc)
	s.audit(ctx, "finalize", inc, func(ctx context.Context) error {
		return s.incidents.Finalize(ctx, inc)
	})
}

// audit writes in the background with a detached, bounded context so a slow
// store never delays the farmer's answer.
func (s *DiagnosisService) audit(ctx context.Context, op string, inc *model.Incident, write func(ctx context.Context) error) {
	if s.incidents == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.AuditTimeout)
	s.audits.Add(1)
	go func() {
		defer s.audits.Done()
		defer cancel()
		if err := write(ctx); err != nil {
			s.log.Error("[Diagnosis] incident write failed",
				zap.String("op", op),
				zap.String("incident", inc.ID),
				zap.Error(err))
		}
	}()
}

func (s *DiagnosisService) broadcast(msgType string, inc model.Incident) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(msgType, inc)
	}
}

func hasFirstRead(history []model.HistoryItem) bool {
	return firstRead(history) != nil
}

func firstRead(history []model.HistoryItem) *model.VisionRead {
	for _, h := range history {
		if h.IsFirstRead() {
			return h.Read
		}
	}
	return nil
}

func countAnswers(history []model.HistoryItem) int {
	n := 0
	for _, h := range history {
		if h.IsFarmer() {
			n++
		}
	}
	return n
}

// UserError maps an error to the code shown to the farmer. Everything that
// is not an unreadable photo is reported as a temporary outage.
func UserError(err error) string {
	if errors.Is(err, ErrImageUnreadable) {
		return "image_unreadable"
	}
	return "service_unavailable"
}
