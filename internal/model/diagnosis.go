package model

// Action is what the farmer did on this request
type Action string

const (
	ActionStart  Action = "start"
	ActionAnswer Action = "answer"
)

// DiagnoseRequest is the boundary input of one diagnosis round-trip
type DiagnoseRequest struct {
	Action     Action        `json:"action"`
	Image      []byte        `json:"-"`
	ImageMIME  string        `json:"-"`
	ImageData  string        `json:"image,omitempty"` // base64 or data URL (JSON transport)
	CropHint   string        `json:"crop,omitempty"`
	RegionHint string        `json:"region,omitempty"`
	QID        string        `json:"qid,omitempty"`
	Answer     Answer        `json:"answer,omitempty"`
	History    []HistoryItem `json:"history"`
}

// Phase is the only discriminator the presentation layer sees
type Phase string

const (
	PhaseQuestion Phase = "QUESTION"
	PhaseFinal    Phase = "FINAL"
)

// CandidateCause is derived on every scoring pass and never stored on its own
type CandidateCause struct {
	Name        string   `json:"name" bson:"name"`
	Probability int      `json:"probability" bson:"probability"` // 0-100
	Why         string   `json:"why" bson:"why"`
	Category    Category `json:"category" bson:"category"`
}

// Progress tells the farmer how far along the questionnaire is
type Progress struct {
	Asked  int `json:"asked"`
	Target int `json:"target"`
}

// Recommendation is a catalog product attached to a final result
type Recommendation struct {
	Name         string       `json:"name" bson:"name"`
	Tier         Tier         `json:"tier" bson:"tier"`
	MaterialType MaterialType `json:"material_type" bson:"materialType"`
	Reason       string       `json:"reason" bson:"reason"`
}

// RiskLevel grades how careful the farmer must be
type RiskLevel string

const (
	RiskLow  RiskLevel = "LOW"
	RiskMid  RiskLevel = "MID"
	RiskHigh RiskLevel = "HIGH"
)

// Response is either *QuestionResponse or *FinalResponse
type Response interface {
	ResponsePhase() Phase
}

// QuestionResponse asks the farmer the next question
type QuestionResponse struct {
	OK              bool          `json:"ok"`
	Phase           Phase         `json:"phase"`
	PrimaryCategory Category      `json:"primary_category"`
	CropGuess       CropGuess     `json:"crop_guess"`
	Observations    []string      `json:"observations"`
	DoctorNote      string        `json:"doctor_note"`
	Question        QuestionView  `json:"question"`
	Progress        Progress      `json:"progress"`
	History         []HistoryItem `json:"history"`
}

// ResponsePhase implements Response
func (r *QuestionResponse) ResponsePhase() Phase { return PhaseQuestion }

// FinalResponse closes the session
type FinalResponse struct {
	OK              bool             `json:"ok"`
	Phase           Phase            `json:"phase"`
	PrimaryCategory Category         `json:"primary_category"`
	CropGuess       CropGuess        `json:"crop_guess"`
	PossibleCauses  []CandidateCause `json:"possible_causes"`
	MustCheck       []string         `json:"must_check"`
	DoNot           []string         `json:"do_not"`
	NextSteps       []string         `json:"next_steps"`
	Need119If       []string         `json:"need_119_if"`
	FollowupMessage string           `json:"followup_message"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	RiskLevel       RiskLevel        `json:"risk_level"`
	Need119         bool             `json:"need_119"`
	SignalScore     int              `json:"signal_score"`
	CropAlert       *CropAlert       `json:"crop_alert,omitempty"`
	IncidentID      string           `json:"incident_id,omitempty"`
	History         []HistoryItem    `json:"history"`
}

// CropAlert is the outcome of a crop-specific check
type CropAlert struct {
	Crop    string    `json:"crop" bson:"crop"`
	Disease string    `json:"disease" bson:"disease"`
	Level   RiskLevel `json:"level" bson:"level"`
	Message string    `json:"message" bson:"message"`
	Reasons []string  `json:"reasons" bson:"reasons"`
	// Blocked means the disease may not be named from the photo
	Blocked bool `json:"blocked,omitempty" bson:"blocked,omitempty"`
}

// ResponsePhase implements Response
func (r *FinalResponse) ResponsePhase() Phase { return PhaseFinal }
