package model

import "time"

// EventType is the tag of a ScanEvent's variant, per §3.
type EventType string

const (
	EventScanStarted       EventType = "scan_started"
	EventPageStarted       EventType = "page_started"
	EventScannerStarted    EventType = "scanner_started"
	EventScannerProgress   EventType = "scanner_progress"
	EventScannerCompleted  EventType = "scanner_completed"
	EventScannerFailed     EventType = "scanner_failed"
	EventAggregationStarted EventType = "aggregation_started"
	EventScanCompleted     EventType = "scan_completed"
	EventScanFailed        EventType = "scan_failed"
	EventScanCancelled     EventType = "scan_cancelled"
)

// ScanEvent is one entry on the Event Bus. Payload is type-specific; unknown
// consumers are expected to ignore fields they don't recognize.
type ScanEvent struct {
	ScanID    string      `json:"scan_id"`
	Seq       int64       `json:"seq"`
	Timestamp time.Time   `json:"ts"`
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
}

type PageStartedPayload struct {
	URL   string `json:"url"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}

type ScannerStartedPayload struct {
	Page    string      `json:"page"`
	Scanner ScannerKind `json:"scanner"`
}

type ScannerProgressPayload struct {
	Page    string      `json:"page"`
	Scanner ScannerKind `json:"scanner"`
	Percent int         `json:"percent"`
}

type ScannerCompletedPayload struct {
	Page       string      `json:"page"`
	Scanner    ScannerKind `json:"scanner"`
	Violations int         `json:"violations"`
	ElapsedMs  int64       `json:"elapsed_ms"`
}

type ScannerFailedPayload struct {
	Page     string      `json:"page"`
	Scanner  ScannerKind `json:"scanner"`
	Reason   string      `json:"reason"`
	Critical bool        `json:"critical"`
}

type ScanCompletedPayload struct {
	Metrics ComplianceMetrics `json:"metrics"`
}

type ScanFailedPayload struct {
	Reason string `json:"reason"`
}

type ScanCancelledPayload struct {
	Partial []PageResult `json:"partial,omitempty"`
}
