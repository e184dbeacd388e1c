package recording

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/thesyncim/recording/internal/log"
)

// Operation names used in errors, logs and metrics.
const (
	opCreate                   = "create"
	opCreateChannel            = "create_channel"
	opCreateChannelWithAccount = "create_channel_with_account"
	opLeaveChannel             = "leave_channel"
	opRelease                  = "release"
	opUpdateMixMode            = "update_mix_mode"
	opSetVideoMixingLayout     = "set_video_mixing_layout"
	opStartService             = "start_service"
	opStopService              = "stop_service"
	opSetUserBackground        = "set_user_background"
	opUpdateSubscribeVideo     = "update_subscribe_video_uids"
	opUpdateSubscribeAudio     = "update_subscribe_audio_uids"
	opUIDByUserAccount         = "uid_by_user_account"
	opUserAccountByUID         = "user_account_by_uid"
)

// userAccountBufLen fits the SDK's 255 byte user accounts plus NUL.
const userAccountBufLen = 256

// Recorder owns one native recording engine. Every method is a single blocking
// call into the engine; the engine's own contract decides which call orders
// are valid. Release (or Close) must be the last call.
//
// Methods serialize on an internal mutex so that a call can never race Release.
type Recorder struct {
	mu       sync.Mutex
	sdk      nativeSDK
	handle   uintptr
	released bool

	// lent holds the join arguments and configs handed to the engine. The
	// engine may keep pointers to them for the life of the channel, so they
	// are only freed by Release.
	lent []*cheap

	logger zerolog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger replaces the recorder's logger.
func WithLogger(l zerolog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// withSDK swaps the native binding, for tests.
func withSDK(sdk nativeSDK) RecorderOption {
	return func(r *Recorder) { r.sdk = sdk }
}

// NewRecorder creates the native engine handle.
func NewRecorder(opts ...RecorderOption) (*Recorder, error) {
	r := &Recorder{
		sdk:    libSDK{},
		logger: log.WithComponent("recorder"),
	}
	for _, opt := range opts {
		opt(r)
	}

	h, err := r.sdk.create()
	observeCall(opCreate, err == nil)
	if err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}
	r.handle = h
	return r, nil
}

// CreateChannel creates the engine and joins channel name as uid. A zero uid
// lets the server assign one. A nil cfg uses NewConfig.
func (r *Recorder) CreateChannel(appID, channelKey, name string, uid uint32, cfg *Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	if cfg == nil {
		cfg = NewConfig()
	}

	args := &cheap{}
	ptrs, cfgPtr, err := lendJoin(args, cfg, appID, channelKey, name)
	if err != nil {
		args.free()
		return fmt.Errorf("%s: %w", opCreateChannel, err)
	}
	// Kept whatever the outcome: a failed join may still leave an engine behind.
	r.lent = append(r.lent, args)

	ok := r.sdk.createChannel(r.handle, ptrs[0], ptrs[1], ptrs[2], uid, cfgPtr)
	observeCall(opCreateChannel, ok)
	if !ok {
		r.logger.Warn().Str(log.FieldChannel, name).Uint32(log.FieldUID, uid).Msg("create channel failed")
		return fmt.Errorf("%w %q", ErrCreateChannel, name)
	}
	r.logger.Debug().
		Str(log.FieldChannel, name).
		Uint32(log.FieldUID, uid).
		Bool(log.FieldMixing, cfg.IsMixingEnabled()).
		Msg("channel created")
	return nil
}

// CreateChannelWithUserAccount is CreateChannel identifying the recorder by a
// user account string instead of a numeric uid.
func (r *Recorder) CreateChannelWithUserAccount(appID, channelKey, name, userAccount string, cfg *Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	if cfg == nil {
		cfg = NewConfig()
	}

	args := &cheap{}
	ptrs, cfgPtr, err := lendJoin(args, cfg, appID, channelKey, name, userAccount)
	if err != nil {
		args.free()
		return fmt.Errorf("%s: %w", opCreateChannelWithAccount, err)
	}
	r.lent = append(r.lent, args)

	ok := r.sdk.createChannelWithAccount(r.handle, ptrs[0], ptrs[1], ptrs[2], ptrs[3], cfgPtr)
	observeCall(opCreateChannelWithAccount, ok)
	if !ok {
		r.logger.Warn().Str(log.FieldChannel, name).Str(log.FieldUserAccount, userAccount).Msg("create channel failed")
		return fmt.Errorf("%w %q", ErrCreateChannel, name)
	}
	r.logger.Debug().Str(log.FieldChannel, name).Str(log.FieldUserAccount, userAccount).Msg("channel created")
	return nil
}

// UpdateMixModeSetting sets the mixing canvas size and whether video is mixed.
// Sizes above math.MaxInt32 are clamped to it.
func (r *Recorder) UpdateMixModeSetting(width, height uint32, videoMix bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		r.logger.Warn().Msg("update mix mode after release ignored")
		return
	}
	r.sdk.updateMixMode(r.handle, clampInt32(width), clampInt32(height), videoMix)
	observeCall(opUpdateMixMode, true)
	r.logger.Debug().
		Str(log.FieldResolution, fmt.Sprintf("%dx%d", width, height)).
		Bool(log.FieldMixing, videoMix).
		Msg("mix mode updated")
}

// LeaveChannel leaves the channel; the engine stops recording.
func (r *Recorder) LeaveChannel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	ok := r.sdk.leaveChannel(r.handle)
	observeCall(opLeaveChannel, ok)
	if !ok {
		return ErrLeaveChannel
	}
	r.logger.Debug().Msg("channel left")
	return nil
}

// SetVideoMixingLayout applies layout to the mixed video and returns the
// engine's status. A non-OK status is also returned as a *StatusError.
// The layout is validated before it reaches the engine.
func (r *Recorder) SetVideoMixingLayout(layout *Layout) (Status, error) {
	if layout == nil {
		layout = NewLayout()
	}
	if err := layout.Validate(); err != nil {
		return StatusInvalidArgument, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return StatusInternalFailed, ErrReleased
	}

	var arena cstrings
	defer arena.free()
	nl, err := marshalLayout(layout, &arena)
	if err != nil {
		return StatusInvalidArgument, fmt.Errorf("%s: %w", opSetVideoMixingLayout, err)
	}

	status := Status(r.sdk.setVideoMixingLayout(r.handle, nl))
	observeCall(opSetVideoMixingLayout, status.OK())
	r.logger.Debug().
		Int(log.FieldRegions, len(layout.Regions)).
		Stringer(log.FieldStatus, status).
		Msg("video mixing layout set")
	return status, statusErr(opSetVideoMixingLayout, status)
}

// Release tears the engine down and frees everything lent to it. It must be
// the last call; later calls return ErrReleased.
func (r *Recorder) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}

	ok := r.sdk.release(r.handle)
	observeCall(opRelease, ok)
	r.sdk.destroy(r.handle)

	for _, args := range r.lent {
		args.free()
	}
	r.lent = nil
	r.handle = 0
	r.released = true

	if !ok {
		r.logger.Warn().Msg("release reported failure")
		return ErrRelease
	}
	r.logger.Debug().Msg("released")
	return nil
}

// Close releases the recorder if it has not been released yet.
func (r *Recorder) Close() error {
	r.mu.Lock()
	released := r.released
	r.mu.Unlock()
	if released {
		return nil
	}
	err := r.Release()
	if errors.Is(err, ErrReleased) {
		return nil
	}
	return err
}

// Released reports whether Release has been called.
func (r *Recorder) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// StartService starts recording when the config uses TriggerManual.
func (r *Recorder) StartService() error {
	return r.statusCall(opStartService, func(h uintptr) int32 { return r.sdk.startService(h) })
}

// StopService pauses recording started with StartService.
func (r *Recorder) StopService() error {
	return r.statusCall(opStopService, func(h uintptr) int32 { return r.sdk.stopService(h) })
}

// SetUserBackground shows the image at imagePath in uid's region while uid
// has no video.
func (r *Recorder) SetUserBackground(uid uint32, imagePath string) error {
	var arena cstrings
	defer arena.free()
	p, err := arena.add(imagePath)
	if err != nil {
		return fmt.Errorf("%s: %w", opSetUserBackground, err)
	}
	return r.statusCall(opSetUserBackground, func(h uintptr) int32 {
		return r.sdk.setUserBackground(h, uid, p)
	})
}

// UpdateSubscribeVideoUIDs replaces the set of users whose video is recorded.
func (r *Recorder) UpdateSubscribeVideoUIDs(uids []uint32) error {
	uids = append([]uint32(nil), uids...)
	return r.statusCall(opUpdateSubscribeVideo, func(h uintptr) int32 {
		return r.sdk.updateSubscribeVideoUIDs(h, uids)
	})
}

// UpdateSubscribeAudioUIDs replaces the set of users whose audio is recorded.
func (r *Recorder) UpdateSubscribeAudioUIDs(uids []uint32) error {
	uids = append([]uint32(nil), uids...)
	return r.statusCall(opUpdateSubscribeAudio, func(h uintptr) int32 {
		return r.sdk.updateSubscribeAudioUIDs(h, uids)
	})
}

// UIDByUserAccount resolves a user account seen in the channel to its uid.
// Zero means unknown.
func (r *Recorder) UIDByUserAccount(userAccount string) (uint32, error) {
	var arena cstrings
	defer arena.free()
	p, err := arena.add(userAccount)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", opUIDByUserAccount, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return 0, ErrReleased
	}
	uid := r.sdk.uidByUserAccount(r.handle, p)
	observeCall(opUIDByUserAccount, uid != 0)
	return uid, nil
}

// UserAccountByUID returns the user account of uid, empty when unknown.
func (r *Recorder) UserAccountByUID(uid uint32) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return "", ErrReleased
	}

	buf := make([]byte, userAccountBufLen)
	n := r.sdk.userAccountByUID(r.handle, uid, buf)
	if int(n) > len(buf) {
		buf = make([]byte, n+1)
		n = r.sdk.userAccountByUID(r.handle, uid, buf)
		if int(n) > len(buf) {
			observeCall(opUserAccountByUID, false)
			return "", fmt.Errorf("%s: %w", opUserAccountByUID, ErrBufferTooSmall)
		}
	}
	observeCall(opUserAccountByUID, true)
	return string(buf[:n]), nil
}

// SetLogLevel sets the engine's log verbosity for the next CreateChannel.
func (r *Recorder) SetLogLevel(level LogLevel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.sdk.setLogLevel(r.handle, int32(level))
}

// SetKeepLastFrame controls whether a user's last frame stays on the mixed
// canvas after their video stops.
func (r *Recorder) SetKeepLastFrame(keep bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.sdk.setKeepLastFrame(r.handle, keep)
}

// Stopped reports whether the engine has left the channel, on request or on error.
func (r *Recorder) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return true
	}
	return r.sdk.stopped(r.handle)
}

// StorageDir returns the directory the engine writes recordings to, empty
// before a channel was created.
func (r *Recorder) StorageDir() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ""
	}
	return r.sdk.storageDir(r.handle)
}

func (r *Recorder) statusCall(op string, call func(h uintptr) int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	status := Status(call(r.handle))
	observeCall(op, status.OK())
	if !status.OK() {
		r.logger.Warn().Str(log.FieldOp, op).Stringer(log.FieldStatus, status).Msg("native call failed")
	}
	return statusErr(op, status)
}

// clampInt32 converts v for a native int parameter.
func clampInt32(v uint32) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}

// lendJoin copies the join strings and cfg into arena for a create channel call.
func lendJoin(arena *cheap, cfg *Config, strs ...string) ([]uintptr, uintptr, error) {
	ptrs := make([]uintptr, len(strs))
	for i, s := range strs {
		p, err := arena.add(s)
		if err != nil {
			return nil, 0, err
		}
		ptrs[i] = p
	}
	ncfg, err := marshalConfig(cfg, arena)
	if err != nil {
		return nil, 0, err
	}
	cfgPtr, err := arena.config(ncfg)
	if err != nil {
		return nil, 0, err
	}
	return ptrs, cfgPtr, nil
}
