package domain

import "time"

// SecurityEventRetention is how long audit records are kept.
const SecurityEventRetention = 30 * 24 * time.Hour

type SecurityEventType string

const (
	EventSessionCreated          SecurityEventType = "SESSION_CREATED"
	EventSessionValidated        SecurityEventType = "SESSION_VALIDATED"
	EventSessionUsed             SecurityEventType = "SESSION_USED"
	EventSessionUseFailed        SecurityEventType = "SESSION_USE_FAILED"
	EventInvalidSessionAttempt   SecurityEventType = "INVALID_SESSION_ATTEMPT"
	EventIPMismatch              SecurityEventType = "IP_MISMATCH"
	EventUserAgentChange         SecurityEventType = "USER_AGENT_CHANGE"
	EventSessionValidationError  SecurityEventType = "SESSION_VALIDATION_ERROR"
	EventSessionValidationFailed SecurityEventType = "SESSION_VALIDATION_FAILED"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severities = map[SecurityEventType]Severity{
	EventInvalidSessionAttempt:   SeverityHigh,
	EventIPMismatch:              SeverityHigh,
	EventSessionValidationError:  SeverityHigh,
	EventUserAgentChange:         SeverityMedium,
	EventSessionValidationFailed: SeverityMedium,
	EventSessionCreated:          SeverityLow,
	EventSessionValidated:        SeverityLow,
	EventSessionUsed:             SeverityLow,
}

// SeverityOf classifies an event type. Unknown types are MEDIUM.
func SeverityOf(t SecurityEventType) Severity {
	if s, ok := severities[t]; ok {
		return s
	}
	return SeverityMedium
}

// SecurityEvent is an append-only audit record.
type SecurityEvent struct {
	ID        string            `json:"id" bson:"id"`
	Type      SecurityEventType `json:"type" bson:"type"`
	Data      map[string]any    `json:"data,omitempty" bson:"data,omitempty"`
	Severity  Severity          `json:"severity" bson:"severity"`
	Timestamp time.Time         `json:"timestamp" bson:"timestamp"`
}
