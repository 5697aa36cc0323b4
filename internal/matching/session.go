package matching

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/erazemk/reunite/internal/imaging"
	"github.com/erazemk/reunite/internal/model"
)

// State is the lifecycle of a scan session.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateDone:
		return "done"
	}
	return "idle"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StateIdle
	case "scanning":
		*s = StateScanning
	case "done":
		*s = StateDone
	default:
		return fmt.Errorf("unknown scan state %q", b)
	}
	return nil
}

// Session tracks the scans issued by one client. Each Begin supersedes the
// previous scan; results are accepted only for the latest ticket, so a slow
// scan that completes after a newer one was started is discarded.
type Session struct {
	mu      sync.Mutex
	seq     uint64
	state   State
	matches []Match
	err     error
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	State   State   `json:"state"`
	Ticket  uint64  `json:"ticket"`
	Matches []Match `json:"matches"`
	Error   string  `json:"error,omitempty"`
}

// Begin starts a new scan and returns its ticket.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.state = StateScanning
	s.matches = nil
	s.err = nil
	return s.seq
}

// Finish records the outcome of the scan identified by ticket. It reports
// false and drops the result when a newer scan has begun since.
func (s *Session) Finish(ticket uint64, matches []Match, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket != s.seq || s.state != StateScanning {
		return false
	}
	s.state = StateDone
	s.matches = matches
	s.err = err
	return true
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state, Ticket: s.seq, Matches: s.matches}
	if snap.Matches == nil {
		snap.Matches = []Match{}
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}

// CandidateFunc loads the catalog snapshot a scan is ranked against.
type CandidateFunc func(ctx context.Context) ([]model.Item, error)

// Scanner runs scans in the background.
type Scanner struct {
	Scorer     Scorer
	Candidates CandidateFunc
}

// Start begins a scan of data on sess and returns its ticket immediately.
// The catalog is loaded and ranked in a separate goroutine.
func (sc *Scanner) Start(ctx context.Context, sess *Session, data []byte) uint64 {
	ticket := sess.Begin()
	go func() {
		matches, err := sc.Run(ctx, data)
		if !sess.Finish(ticket, matches, err) {
			slog.Debug("discarding stale scan result", "ticket", ticket)
		}
	}()
	return ticket
}

// Run decodes data, probes it and ranks the current catalog synchronously.
func (sc *Scanner) Run(ctx context.Context, data []byte) ([]Match, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	probe, err := NewProbe(img)
	if err != nil {
		return nil, err
	}
	items, err := sc.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	return sc.Scorer.Rank(probe, items), nil
}
