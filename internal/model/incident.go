package model

import "time"

// IncidentStatus tracks an incident through its lifecycle
type IncidentStatus string

const (
	IncidentVisionDone IncidentStatus = "VISION_DONE"
	IncidentFinalized  IncidentStatus = "FINALIZED"
	IncidentNeedReview IncidentStatus = "NEED_REVIEW" // finalized with HIGH risk
)

// Incident is the audit record of one diagnosis session.
// Its ID is the session ID minted at the first photo read.
type Incident struct {
	ID              string           `json:"id" bson:"_id"`
	Status          IncidentStatus   `json:"status" bson:"status"`
	Source          string           `json:"source" bson:"source"`
	ImageURLs       []string         `json:"imageUrls,omitempty" bson:"imageUrls,omitempty"`
	Crop            string           `json:"crop,omitempty" bson:"crop,omitempty"`
	Region          string           `json:"region,omitempty" bson:"region,omitempty"`
	PrimaryCategory Category         `json:"primaryCategory,omitempty" bson:"primaryCategory,omitempty"`
	VisionSummary   string           `json:"visionSummary,omitempty" bson:"visionSummary,omitempty"`
	Observations    []string         `json:"observations,omitempty" bson:"observations,omitempty"`
	PossibleCauses  []CandidateCause `json:"possibleCauses,omitempty" bson:"possibleCauses,omitempty"`
	RiskLevel       RiskLevel        `json:"riskLevel,omitempty" bson:"riskLevel,omitempty"`
	Need119         bool             `json:"need119" bson:"need119"`
	QuestionsAsked  int              `json:"questionsAsked" bson:"questionsAsked"`
	CreatedAt       time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt" bson:"updatedAt"`
}
