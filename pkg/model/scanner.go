package model

// ScannerKind is the closed set of scanner adapter variants this engine
// knows how to drive.
type ScannerKind string

const (
	Wave       ScannerKind = "wave"
	Pa11y      ScannerKind = "pa11y"
	Axe        ScannerKind = "axe"
	Lighthouse ScannerKind = "lighthouse"
)

// AllScannerKinds lists the closed set in canonical order.
var AllScannerKinds = []ScannerKind{Wave, Pa11y, Axe, Lighthouse}

// LatencyClass roughly describes how long a scanner variant typically takes,
// for display/scheduling hints; it does not affect correctness.
type LatencyClass string

const (
	LatencyFast   LatencyClass = "fast"
	LatencyMedium LatencyClass = "medium"
	LatencySlow   LatencyClass = "slow"
)

// ScannerDescriptor is the static metadata for one ScannerKind.
type ScannerDescriptor struct {
	Kind           ScannerKind
	RequiresAPIKey bool
	Latency        LatencyClass
	WCAGCoverage   []string
}

// Descriptors is the static table of ScannerKind metadata.
var Descriptors = map[ScannerKind]ScannerDescriptor{
	Wave: {
		Kind:           Wave,
		RequiresAPIKey: true,
		Latency:        LatencyMedium,
		WCAGCoverage:   []string{"1.1.1", "1.4.3", "1.4.6", "2.4.4", "3.3.2", "4.1.2"},
	},
	Pa11y: {
		Kind:           Pa11y,
		RequiresAPIKey: false,
		Latency:        LatencyFast,
		WCAGCoverage:   []string{"1.1.1", "1.3.1", "2.4.4", "4.1.2"},
	},
	Axe: {
		Kind:           Axe,
		RequiresAPIKey: false,
		Latency:        LatencyFast,
		WCAGCoverage:   []string{"1.1.1", "1.3.1", "1.4.3", "2.1.1", "4.1.2"},
	},
	Lighthouse: {
		Kind:           Lighthouse,
		RequiresAPIKey: false,
		Latency:        LatencySlow,
		WCAGCoverage:   []string{"1.4.3", "1.1.1", "2.4.4", "4.1.2"},
	},
}

// Status is the outcome of running one scanner against one page.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusTimeout Status = "timeout"
	StatusSkipped Status = "skipped"
)

// FailureKind is the RawScanOutput.Failure error taxonomy from §4.1.
type FailureKind string

const (
	FailureConfiguration FailureKind = "configuration_error"
	FailureTimeout       FailureKind = "timeout"
	FailureTransport     FailureKind = "transport_error"
	FailureProtocol      FailureKind = "protocol_error"
)

// Retryable reports whether the adapter retry loop (adapter.WithRetry)
// should attempt this failure again, per §4.1's taxonomy. The orchestrator
// itself never retries.
func (k FailureKind) Retryable() bool {
	return k == FailureTransport
}

// RawScanOutput is one scanner's result for one page: a tagged variant of
// Success (opaque JSON payload) or Failure (typed error). Never persisted as
// authoritative; the Violation set derived from it is.
type RawScanOutput struct {
	Success bool            `json:"success"`
	Payload []byte          `json:"payload,omitempty"`
	Failure *ScanFailure    `json:"failure,omitempty"`
}

// ScanFailure is the Failure variant of RawScanOutput.
type ScanFailure struct {
	Kind      FailureKind `json:"kind"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`
}

func SuccessOutput(payload []byte) RawScanOutput {
	return RawScanOutput{Success: true, Payload: payload}
}

func FailureOutput(kind FailureKind, message string) RawScanOutput {
	return RawScanOutput{
		Success: false,
		Failure: &ScanFailure{Kind: kind, Message: message, Retryable: kind.Retryable()},
	}
}
