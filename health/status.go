package health

import (
	"regexp"
	"strings"
	"time"
)

// Pre-compiled regexes for error message sanitization.
var (
	httpURLRegex     = regexp.MustCompile(`https?://[^\s]+`)
	natsURLRegex     = regexp.MustCompile(`nats://[^\s]+`)
	wsURLRegex       = regexp.MustCompile(`wss?://[^\s]+`)
	unixPathRegex    = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	windowsPathRegex = regexp.MustCompile(`[A-Z]:\\[^:\s]+`)
	ipAddrRegex      = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex        = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex  = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// State is the coarse health classification of a component.
type State string

const (
	StateHealthy   State = "healthy"
	StateDegraded  State = "degraded"
	StateUnhealthy State = "unhealthy"
)

// Status represents the health of one component, or of the whole
// service when it carries sub-statuses.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	State       State     `json:"state"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
	Metrics     *Metrics  `json:"metrics,omitempty"`
}

// Metrics carries activity counters alongside a status.
type Metrics struct {
	Uptime             time.Duration `json:"uptime"`
	ErrorCount         int           `json:"error_count"`
	EnvelopesProcessed int64         `json:"envelopes_processed,omitempty"`
	LastActivity       time.Time     `json:"last_activity,omitempty"`
}

// IsHealthy returns true if the status is healthy.
func (s Status) IsHealthy() bool {
	return s.State == StateHealthy
}

// IsDegraded returns true if the status is degraded.
func (s Status) IsDegraded() bool {
	return s.State == StateDegraded
}

// IsUnhealthy returns true if the status is unhealthy.
func (s Status) IsUnhealthy() bool {
	return s.State == StateUnhealthy
}

// WithMetrics returns a copy of the status with metrics attached.
func (s Status) WithMetrics(metrics *Metrics) Status {
	s.Metrics = metrics
	return s
}

// WithSubStatus adds a sub-status and returns a copy. The sub-status
// slice is never shared with the receiver.
func (s Status) WithSubStatus(subStatus Status) Status {
	subStatuses := make([]Status, len(s.SubStatuses), len(s.SubStatuses)+1)
	copy(subStatuses, s.SubStatuses)
	s.SubStatuses = append(subStatuses, subStatus)
	return s
}

// Report is the raw health signal a component exposes from its own
// counters. FromReport converts it into a Status with the last error
// message sanitized.
type Report struct {
	Healthy            bool
	LastError          string
	ErrorCount         int
	Uptime             time.Duration
	LastActivity       time.Time
	EnvelopesProcessed int64
}

// FromReport converts a component's raw report into a Status. Error
// messages pass through sanitizeErrorMessage so connection strings,
// paths, and credentials never leak into health output.
func FromReport(name string, r Report) Status {
	state := StateUnhealthy
	if r.Healthy {
		state = StateHealthy
	}

	message := "Component healthy"
	if r.LastError != "" {
		message = sanitizeErrorMessage(r.LastError)
	}

	return Status{
		Component: name,
		Healthy:   r.Healthy,
		State:     state,
		Message:   message,
		Timestamp: time.Now(),
		Metrics: &Metrics{
			Uptime:             r.Uptime,
			ErrorCount:         r.ErrorCount,
			EnvelopesProcessed: r.EnvelopesProcessed,
			LastActivity:       r.LastActivity,
		},
	}
}

// sanitizeErrorMessage removes potentially sensitive information from
// error messages before they appear in health output:
//
//   - URLs (http://, https://, nats://, ws://, wss://) → [URL]
//   - File paths (Unix and Windows) → [PATH]
//   - IP addresses → [IP]
//   - Port numbers (:8080) → [PORT]
//   - Credentials (password=X, token=X, key=X, secret=X) → [REDACTED]
func sanitizeErrorMessage(err string) string {
	if err == "" {
		return ""
	}

	sanitized := err

	// URLs first, they contain paths.
	sanitized = httpURLRegex.ReplaceAllString(sanitized, "[URL]")
	sanitized = natsURLRegex.ReplaceAllString(sanitized, "[URL]")
	sanitized = wsURLRegex.ReplaceAllString(sanitized, "[URL]")

	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = windowsPathRegex.ReplaceAllString(sanitized, "[PATH]")

	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = portRegex.ReplaceAllString(sanitized, "[PORT]")

	lower := strings.ToLower(sanitized)
	if strings.Contains(lower, "password") || strings.Contains(lower, "token") ||
		strings.Contains(lower, "key") || strings.Contains(lower, "secret") ||
		strings.Contains(lower, "credential") {
		sanitized = credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
	}

	return sanitized
}
