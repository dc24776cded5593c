// Package model holds the canonical, immutable-by-convention data types the
// rest of the scan orchestration engine is built around: the request that
// starts a scan, the pages it discovers, the scanners it runs, the raw and
// normalized findings those scanners produce, and the result it hands back.
package model

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New()

// ScanMode selects whether adapters make real external calls or return
// deterministic canned output keyed by URL.
type ScanMode string

const (
	ModeReal     ScanMode = "real"
	ModeSimulate ScanMode = "simulate"
)

// ScannerSelection enables or disables each member of the closed ScannerKind
// set for one scan.
type ScannerSelection struct {
	Wave       bool `json:"wave" yaml:"wave"`
	Pa11y      bool `json:"pa11y" yaml:"pa11y"`
	Axe        bool `json:"axe" yaml:"axe"`
	Lighthouse bool `json:"lighthouse" yaml:"lighthouse"`
}

// Enabled returns the ScannerKinds selected, in the closed-set canonical
// order WAVE, PA11Y, AXE, LIGHTHOUSE.
func (s ScannerSelection) Enabled() []ScannerKind {
	var kinds []ScannerKind
	if s.Wave {
		kinds = append(kinds, Wave)
	}
	if s.Pa11y {
		kinds = append(kinds, Pa11y)
	}
	if s.Axe {
		kinds = append(kinds, Axe)
	}
	if s.Lighthouse {
		kinds = append(kinds, Lighthouse)
	}
	return kinds
}

// ScanRequest is the immutable input to a scan. Created by the boundary
// layer; never mutated afterwards.
type ScanRequest struct {
	URL         string           `json:"url" validate:"required,http_url"`
	CompanyName string           `json:"company_name" validate:"required,min=1,max=255"`
	Email       string           `json:"email" validate:"required,email"`
	Scanners    ScannerSelection `json:"scanners"`
	TimeoutMs   int              `json:"timeout_ms" validate:"min=1000,max=600000"`
	Mode        ScanMode         `json:"mode" validate:"required,oneof=real simulate"`
	MaxPages    int              `json:"max_pages" validate:"min=1"`
	MaxDepth    int              `json:"max_depth" validate:"min=1"`

	// AllowLocalTargets opts out of the local/private-address rejection, for
	// scanning internal staging environments from a trusted caller.
	AllowLocalTargets bool `json:"allow_local_targets"`
}

// localHostnames are rejected outright regardless of DNS resolution.
var localHostnames = map[string]bool{
	"localhost": true,
}

// isLocalOrPrivateHost reports whether host (already split from the URL,
// no port) names the local machine or a private/loopback/link-local address.
func isLocalOrPrivateHost(host string) bool {
	if localHostnames[strings.ToLower(host)] {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// Validate runs the struct-tag rules (URL format, email format, timeout and
// page/depth bounds, mode enum) through go-playground/validator, then layers
// on the checks a struct tag can't express.
func (r ScanRequest) Validate() error {
	if err := structValidator.Struct(r); err != nil {
		return err
	}
	if !r.AllowLocalTargets {
		if parsed, err := url.Parse(r.URL); err == nil && isLocalOrPrivateHost(parsed.Hostname()) {
			return fmt.Errorf("url %q resolves to a local/private address; set allow_local_targets to scan it", r.URL)
		}
	}
	if r.CompanyName == "" {
		return fmt.Errorf("company_name must not be empty")
	}
	if r.TimeoutMs < 1000 || r.TimeoutMs > 600000 {
		return fmt.Errorf("timeout_ms must be within [1000, 600000], got %d", r.TimeoutMs)
	}
	if r.MaxPages < 1 {
		return fmt.Errorf("max_pages must be >= 1")
	}
	if r.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be >= 1")
	}
	if r.Mode != ModeReal && r.Mode != ModeSimulate {
		return fmt.Errorf("mode must be %q or %q", ModeReal, ModeSimulate)
	}
	return nil
}
