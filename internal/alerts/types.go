package alerts

import (
	"fmt"
	"time"
)

// Type identifies the rule that fired an alert
type Type string

const (
	TypeETAImminent     Type = "ETA_IMMINENT"
	TypeDangerousGoods  Type = "DANGEROUS_GOODS_INBOUND"
	TypeDocumentOverdue Type = "DOCUMENT_OVERDUE"
	TypeHighCongestion  Type = "HIGH_CONGESTION"
)

// Severity grades an alert for routing and display
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Alert is one rule firing for a port, optionally tied to a vessel.
// Alerts are append-only: once recorded they are only ever mutated by an
// explicit acknowledge.
type Alert struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	PortCode     string    `json:"port_code"`
	Type         Type      `json:"type"`
	Severity     Severity  `json:"severity"`
	VesselID     string    `json:"vessel_id,omitempty"`
	VesselName   string    `json:"vessel_name,omitempty"`
	Message      string    `json:"message"`
	Acknowledged bool      `json:"acknowledged"`
}

// DedupKey identifies "the same condition" for deduplication: the rule type
// plus the vessel it concerns, or the port itself for port-scoped rules.
func (a Alert) DedupKey() string {
	subject := a.VesselID
	if subject == "" {
		subject = a.PortCode
	}
	return fmt.Sprintf("%s|%s", a.Type, subject)
}
