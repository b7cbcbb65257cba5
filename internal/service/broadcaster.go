package service

// Broadcaster pushes events to the operator incident feed (avoids import cycle)
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

// Incident feed event types
const (
	EventIncidentCreated   = "incident_created"
	EventIncidentFinalized = "incident_finalized"
)
