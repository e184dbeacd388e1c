package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	"github.com/thesyncim/recording/internal/log"
)

var (
	// ErrInvalidTransition is returned by Session calls made in the wrong state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrEngineStopped is returned by Session.Run when the engine left the
	// channel on its own (idle limit, kicked, network failure).
	ErrEngineStopped = errors.New("recording engine stopped")
)

// Session states.
const (
	StateIdle     = "idle"
	StateJoined   = "joined"
	StateLeft     = "left"
	StateReleased = "released"
)

const (
	eventJoin    = "join"
	eventLeave   = "leave"
	eventRelease = "release"
)

const defaultStopPollInterval = time.Second

// JoinParams identifies the channel a Session records.
type JoinParams struct {
	AppID      string
	ChannelKey string
	Channel    string
	UID        uint32
	// UserAccount, when set, joins with a user account instead of UID.
	UserAccount string
	// Config defaults to NewConfig when nil.
	Config *Config
	// Mix, when set, is applied right after joining.
	Mix *MixSetting
}

// MixSetting is the argument set of Recorder.UpdateMixModeSetting.
type MixSetting struct {
	Width    uint32
	Height   uint32
	VideoMix bool
}

// Session owns a Recorder for one channel and enforces the call order
// join → {mix, layout} → leave → release. Close always releases the recorder.
type Session struct {
	id     string
	rec    *Recorder
	logger zerolog.Logger

	mu           sync.Mutex
	machine      *fsm.FSM
	pollInterval time.Duration
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(s *Session) { s.id = id }
}

// WithSessionLogger replaces the session's logger. Entries carry the session ID.
func WithSessionLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithStopPollInterval sets how often Run checks whether the engine stopped.
func WithStopPollInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.pollInterval = d }
}

// NewSession wraps rec. The session takes ownership: Close releases rec.
func NewSession(rec *Recorder, opts ...SessionOption) *Session {
	s := &Session{
		id:           uuid.NewString(),
		rec:          rec,
		logger:       log.WithComponent("session"),
		pollInterval: defaultStopPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.machine = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventJoin, Src: []string{StateIdle}, Dst: StateJoined},
			{Name: eventLeave, Src: []string{StateJoined}, Dst: StateLeft},
			{Name: eventRelease, Src: []string{StateIdle, StateJoined, StateLeft}, Dst: StateReleased},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				s.onTransition(ctx, e)
			},
		},
	)
	return s
}

func (s *Session) onTransition(ctx context.Context, e *fsm.Event) {
	switch {
	case e.Dst == StateJoined:
		SessionsActive.Inc()
	case e.Src == StateJoined:
		SessionsActive.Dec()
	}
	lg := s.ctxLogger(ctx)
	lg.Debug().
		Str(log.FieldEvent, e.Event).
		Str(log.FieldOldState, e.Src).
		Str(log.FieldNewState, e.Dst).
		Msg("session state changed")
}

// withID tags ctx with the session ID for log.WithContext.
func (s *Session) withID(ctx context.Context) context.Context {
	if log.SessionIDFromContext(ctx) == s.id {
		return ctx
	}
	return log.ContextWithSessionID(ctx, s.id)
}

func (s *Session) ctxLogger(ctx context.Context) zerolog.Logger {
	return log.WithContext(s.withID(ctx), s.logger)
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// State returns the current session state.
func (s *Session) State() string {
	return s.machine.Current()
}

// Recorder returns the underlying recorder.
func (s *Session) Recorder() *Recorder { return s.rec }

// fire moves the state machine; callers hold s.mu and have checked Can.
func (s *Session) fire(ctx context.Context, event string) error {
	if err := s.machine.Event(ctx, event); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	}
	return nil
}

func (s *Session) require(event string) error {
	if !s.machine.Can(event) {
		return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, event, s.machine.Current())
	}
	return nil
}

// Join validates p.Config and joins the channel.
func (s *Session) Join(ctx context.Context, p JoinParams) error {
	ctx = s.withID(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(eventJoin); err != nil {
		return err
	}

	cfg := p.Config
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var err error
	if p.UserAccount != "" {
		err = s.rec.CreateChannelWithUserAccount(p.AppID, p.ChannelKey, p.Channel, p.UserAccount, cfg)
	} else {
		err = s.rec.CreateChannel(p.AppID, p.ChannelKey, p.Channel, p.UID, cfg)
	}
	if err != nil {
		return err
	}
	if err := s.fire(ctx, eventJoin); err != nil {
		return err
	}

	lg := s.ctxLogger(ctx)
	lg.Info().
		Str(log.FieldAppID, p.AppID).
		Str(log.FieldChannel, p.Channel).
		Uint32(log.FieldUID, p.UID).
		Msg("joined channel")

	if p.Mix != nil {
		s.rec.UpdateMixModeSetting(p.Mix.Width, p.Mix.Height, p.Mix.VideoMix)
	}
	return nil
}

// UpdateMix forwards to Recorder.UpdateMixModeSetting while joined.
func (s *Session) UpdateMix(width, height uint32, videoMix bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.machine.Current(); cur != StateJoined {
		return fmt.Errorf("%w: update mix in state %s", ErrInvalidTransition, cur)
	}
	s.rec.UpdateMixModeSetting(width, height, videoMix)
	return nil
}

// ApplyLayout forwards to Recorder.SetVideoMixingLayout while joined.
func (s *Session) ApplyLayout(layout *Layout) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.machine.Current(); cur != StateJoined {
		return StatusInternalFailed, fmt.Errorf("%w: apply layout in state %s", ErrInvalidTransition, cur)
	}
	return s.rec.SetVideoMixingLayout(layout)
}

// Leave leaves the channel. The recorder stays allocated until Close.
func (s *Session) Leave(ctx context.Context) error {
	ctx = s.withID(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.require(eventLeave); err != nil {
		return err
	}
	if err := s.rec.LeaveChannel(); err != nil {
		return err
	}
	lg := s.ctxLogger(ctx)
	lg.Info().Msg("left channel")
	return s.fire(ctx, eventLeave)
}

// Close leaves the channel if still joined and releases the recorder.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine.Current() == StateReleased {
		return nil
	}

	ctx := s.withID(context.Background())
	lg := s.ctxLogger(ctx)
	var errs []error
	if s.machine.Current() == StateJoined {
		if err := s.rec.LeaveChannel(); err != nil {
			errs = append(errs, err)
		}
		if err := s.fire(ctx, eventLeave); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.rec.Release(); err != nil && !errors.Is(err, ErrReleased) {
		errs = append(errs, err)
	}
	if err := s.fire(ctx, eventRelease); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		lg.Warn().Err(err).Msg("session closed with errors")
		return err
	}
	lg.Info().Msg("session closed")
	return nil
}

// Run joins, applies layout when non-nil, and records until ctx is done or
// the engine stops by itself. The channel is left and the recorder released
// on every return path. Cancellation of ctx is a normal stop and returns nil.
func (s *Session) Run(ctx context.Context, p JoinParams, layout *Layout) (err error) {
	ctx = s.withID(ctx)
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()

	if err := s.Join(ctx, p); err != nil {
		return err
	}
	if layout != nil {
		if _, err := s.ApplyLayout(layout); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if s.rec.Stopped() {
				return ErrEngineStopped
			}
		}
	}
}
