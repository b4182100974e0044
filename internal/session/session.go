// Package session tracks what each browser is looking at: the uploaded
// photo, the state of its analysis and the result or error it produced.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"chefai/internal/imagedata"
	"chefai/internal/recipe"
)

// State is the phase of a session's analysis.
type State string

const (
	StateIdle    State = "IDLE"
	StateLoading State = "LOADING"
	StateSuccess State = "SUCCESS"
	StateError   State = "ERROR"
)

// GenericErrorMessage is shown for failures that carry no user message.
const GenericErrorMessage = "An unexpected error occurred. Please try again."

var (
	// ErrNoImage is returned by Begin when no photo has been uploaded.
	ErrNoImage = errors.New("no image to analyze")
	// ErrAnalysisInFlight is returned by Begin while another analysis runs.
	ErrAnalysisInFlight = errors.New("an analysis is already in progress")
)

// Ticket identifies one analysis. Completions carrying an outdated ticket
// are ignored.
type Ticket struct {
	Seq   uint64
	Image *imagedata.Image
}

// Session is one user's state machine. All methods are safe for concurrent use.
type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	image    *imagedata.Image
	result   *recipe.AnalysisResult
	errMsg   string
	seq      uint64
	cancel   context.CancelFunc
	lastSeen time.Time
}

// New creates an idle session.
func New(id string) *Session {
	return &Session{ID: id, state: StateIdle, lastSeen: time.Now()}
}

// LoadImage replaces the photo and returns to IDLE, dropping any result,
// error or analysis in flight.
func (s *Session) LoadImage(img *imagedata.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidateLocked()
	s.image = img
	s.state = StateIdle
	s.result = nil
	s.errMsg = ""
}

// Begin moves the session to LOADING and returns the ticket the caller must
// hand back to Complete. The returned context is cancelled when the
// analysis is superseded by LoadImage or Reset.
func (s *Session) Begin(parent context.Context) (context.Context, Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.image == nil {
		return nil, Ticket{}, ErrNoImage
	}
	if s.state == StateLoading {
		return nil, Ticket{}, ErrAnalysisInFlight
	}

	ctx, cancel := context.WithCancel(parent)
	s.seq++
	s.cancel = cancel
	s.state = StateLoading
	s.result = nil
	s.errMsg = ""
	return ctx, Ticket{Seq: s.seq, Image: s.image}, nil
}

// Complete records the outcome of the analysis identified by t. It returns
// false and changes nothing if t is stale or the session is not LOADING.
func (s *Session) Complete(t Ticket, result *recipe.AnalysisResult, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Seq != s.seq || s.state != StateLoading {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	switch {
	case err != nil:
		s.state = StateError
		s.errMsg = userMessage(err)
		s.result = nil
	case result == nil:
		s.state = StateError
		s.errMsg = GenericErrorMessage
		s.result = nil
	case result.Failed():
		s.state = StateError
		s.errMsg = result.Error
		s.result = nil
	default:
		s.state = StateSuccess
		s.result = result
		s.errMsg = ""
	}
	return true
}

// Reset clears the photo, result and error and returns to IDLE.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidateLocked()
	s.image = nil
	s.state = StateIdle
	s.result = nil
	s.errMsg = ""
}

func (s *Session) invalidateLocked() {
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// View is a point-in-time copy of a session for rendering.
type View struct {
	State  State                  `json:"state"`
	Image  string                 `json:"image,omitempty"`
	Result *recipe.AnalysisResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// HasImage reports whether a photo is loaded.
func (v View) HasImage() bool { return v.Image != "" }

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{State: s.state, Result: s.result, Error: s.errMsg}
	if s.image != nil {
		v.Image = s.image.DataURL()
	}
	return v
}

type userMessager interface {
	UserMessage() string
}

func userMessage(err error) string {
	var um userMessager
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return GenericErrorMessage
}
