package model

// Role identifies who produced a history turn
type Role string

const (
	RoleDoctor Role = "doctor"
	RoleFarmer Role = "farmer"
)

// DoctorKind distinguishes system-emitted turns
type DoctorKind string

const (
	DoctorFirstRead DoctorKind = "first_read" // cached photo read; exactly one per session
	DoctorNote      DoctorKind = "note"       // free observation or internal note
)

// HistoryItem is one turn of a diagnosis session. History is append-only and
// is the only state carried between requests.
type HistoryItem struct {
	Role Role `json:"role" bson:"role"`

	// Doctor turns
	Kind DoctorKind  `json:"kind,omitempty" bson:"kind,omitempty"`
	Text string      `json:"text,omitempty" bson:"text,omitempty"`
	Read *VisionRead `json:"read,omitempty" bson:"read,omitempty"`

	// Farmer turns
	QID    string `json:"qid,omitempty" bson:"qid,omitempty"`
	Answer Answer `json:"answer,omitempty" bson:"answer,omitempty"`
}

// IsFarmer reports whether the turn is a farmer answer
func (h HistoryItem) IsFarmer() bool {
	return h.Role == RoleFarmer
}

// IsFirstRead reports whether the turn carries the cached photo read
func (h HistoryItem) IsFirstRead() bool {
	return h.Role == RoleDoctor && h.Kind == DoctorFirstRead && h.Read != nil
}

// FarmerTurn builds a farmer answer turn
func FarmerTurn(qid string, answer Answer) HistoryItem {
	return HistoryItem{Role: RoleFarmer, QID: qid, Answer: answer}
}

// FirstReadTurn builds the doctor turn that caches the photo read
func FirstReadTurn(read *VisionRead) HistoryItem {
	return HistoryItem{Role: RoleDoctor, Kind: DoctorFirstRead, Text: read.DoctorNote, Read: read}
}

// CropGuess is the model's guess of the crop
type CropGuess struct {
	Name       string `json:"name" bson:"name"`
	Confidence int    `json:"confidence" bson:"confidence"` // 0-100
}

// VisionRead is the validated output of the image-understanding call
type VisionRead struct {
	SessionID       string    `json:"session_id" bson:"sessionId"`
	CropGuess       CropGuess `json:"crop_guess" bson:"cropGuess"`
	PrimaryCategory Category  `json:"primary_category,omitempty" bson:"primaryCategory,omitempty"`
	Observations    []string  `json:"observations" bson:"observations"`
	DoctorNote      string    `json:"doctor_note" bson:"doctorNote"`
	Fallback        bool      `json:"fallback,omitempty" bson:"fallback,omitempty"` // model output was unusable
	ImageURL        string    `json:"image_url,omitempty" bson:"imageUrl,omitempty"`
	CropHint        string    `json:"crop_hint,omitempty" bson:"cropHint,omitempty"`
	RegionHint      string    `json:"region_hint,omitempty" bson:"regionHint,omitempty"`
}
