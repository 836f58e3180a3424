package registry

import "time"

// Outcome is emitted once per plugin directory each time the registry
// decides its state.
type Outcome struct {
	ScanID    string    `json:"scanId"`
	ToolkitID string    `json:"toolkitIdentifier,omitempty"`
	Dir       string    `json:"path"`
	State     State     `json:"state"`
	Kind      string    `json:"kind,omitempty"`
	Message   string    `json:"message,omitempty"`
	Version   string    `json:"version,omitempty"` // semver form of the descriptor version
	At        time.Time `json:"at"`
}

// Reporter receives outcomes synchronously. Implementations must not call
// back into the registry's mutating methods.
type Reporter interface {
	Report(Outcome)
}

// ScanObserver is implemented by reporters that also want the scan summary.
type ScanObserver interface {
	ScanCompleted(*ScanReport)
}

// ScanReport summarizes a single Scan.
type ScanReport struct {
	ScanID    string        `json:"scanId"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Active    int           `json:"active"`
	Rejected  int           `json:"rejected"`
	Unloaded  int           `json:"unloaded"`
	Skipped   int           `json:"skipped"`
	Outcomes  []Outcome     `json:"outcomes"`
}

func (s *ScanReport) add(o Outcome) {
	switch o.State {
	case StateActive:
		s.Active++
	case StateRejected:
		s.Rejected++
	case StateUnloaded:
		s.Unloaded++
	}
	s.Outcomes = append(s.Outcomes, o)
}

func newOutcome(scanID string, e *Entry) Outcome {
	o := Outcome{
		ScanID:    scanID,
		ToolkitID: e.ToolkitID,
		Dir:       e.Dir,
		State:     e.State,
		Kind:      e.ErrorKind,
		Message:   e.Error,
		At:        e.UpdatedAt,
	}
	if e.Descriptor != nil && e.Descriptor.Version != nil {
		if sv, err := e.Descriptor.Version.Semver(); err == nil {
			o.Version = sv.String()
		}
	}
	return o
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Outcome)

func (f ReporterFunc) Report(o Outcome) { f(o) }
