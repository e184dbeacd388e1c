package recording

import (
	"errors"
	"fmt"
)

var (
	// ErrLibraryNotLoaded is returned when libagora_recording cannot be loaded.
	ErrLibraryNotLoaded = errors.New("agora recording library not loaded")
	// ErrUnsupportedPlatform is returned on platforms the SDK does not ship for.
	ErrUnsupportedPlatform = errors.New("agora recording SDK is only available on linux")
	// ErrCreateEngine is returned when the native engine handle cannot be created.
	ErrCreateEngine = errors.New("failed to create recording engine")
	// ErrCreateChannel is returned when the engine refuses to create or join a channel.
	ErrCreateChannel = errors.New("failed to create channel")
	// ErrLeaveChannel is returned when the engine reports a failed leave.
	ErrLeaveChannel = errors.New("failed to leave channel")
	// ErrRelease is returned when the engine reports a failed teardown.
	ErrRelease = errors.New("failed to release recording engine")
	// ErrReleased is returned by calls made after Release.
	ErrReleased = errors.New("recorder already released")
	// ErrInvalidText is returned for text that cannot become a C string.
	ErrInvalidText = errors.New("text contains a NUL byte")
	// ErrBufferTooSmall is returned when a native lookup does not fit the buffer.
	ErrBufferTooSmall = errors.New("native result exceeds buffer")
)

// Status is a result code reported by the native engine.
// Mirrors agora::linuxsdk::ERROR_CODE_TYPE; the wrapper reports some codes negated.
type Status int32

const (
	StatusOK              Status = 0
	StatusFailed          Status = 1
	StatusInvalidArgument Status = 2
	StatusInternalFailed  Status = 3
)

// OK reports whether s is a success code.
func (s Status) OK() bool { return s == StatusOK }

func (s Status) String() string {
	code := s
	if code < 0 {
		code = -code
	}
	switch code {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusInvalidArgument:
		return "invalid argument"
	case StatusInternalFailed:
		return "internal failure"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// StatusError wraps a non-OK Status with the operation that produced it.
type StatusError struct {
	Op     string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Status, int32(e.Status))
}

// statusErr returns nil for StatusOK and a *StatusError otherwise.
func statusErr(op string, s Status) error {
	if s.OK() {
		return nil
	}
	return &StatusError{Op: op, Status: s}
}

// LogLevel is the native engine's log verbosity (agora_log_level).
type LogLevel int32

const (
	LogLevelFatal  LogLevel = 1
	LogLevelError  LogLevel = 2
	LogLevelWarn   LogLevel = 3
	LogLevelNotice LogLevel = 5
	LogLevelInfo   LogLevel = 6
	LogLevelDebug  LogLevel = 7
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelFatal:
		return "fatal"
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelNotice:
		return "notice"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// nativeConfig matches AgoraRecordingConfig in clib/agora_recording.h.
// String fields hold addresses of NUL-terminated buffers.
type nativeConfig struct {
	IsAudioOnly             int32
	IsVideoOnly             int32
	IsMixingEnabled         int32
	MixedVideoAudio         int32
	MixResolution           uintptr
	DecryptionMode          uintptr
	Secret                  uintptr
	AppliteDir              uintptr
	RecordFileRootDir       uintptr
	CfgFilePath             uintptr
	DecodeVideo             int32
	DecodeAudio             int32
	LowUDPPort              int32
	HighUDPPort             int32
	IdleLimitSec            int32
	CaptureInterval         int32
	AudioIndicationInterval int32
	ChannelProfile          int32
	StreamType              int32
	TriggerMode             int32
	Lang                    int32
	ProxyServer             uintptr
	AudioProfile            int32
	DefaultVideoBg          uintptr
	DefaultUserBg           uintptr
	AutoSubscribe           int32
	EnableCloudProxy        int32
	SubscribeVideoUIDs      uintptr
	SubscribeAudioUIDs      uintptr
	EnableIntraRequest      int32
	EnableH265Support       int32
}

// nativeRegion matches AgoraRegion.
type nativeRegion struct {
	UID        uint32
	X          float64
	Y          float64
	Width      float64
	Height     float64
	ZOrder     int32
	Alpha      float64
	RenderMode int32
}

// nativeLayout matches AgoraVideoMixingLayout.
type nativeLayout struct {
	CanvasWidth     int32
	CanvasHeight    int32
	BackgroundColor uintptr
	RegionCount     uint32
	Regions         uintptr
	AppData         uintptr
	AppDataLength   int32
	KeepLastFrame   int32
}

// nativeSDK is the call surface of libagora_recording. Every method is a single
// blocking native call on the handle h. The create channel calls take
// addresses of cheap blocks, which the engine may keep.
type nativeSDK interface {
	create() (uintptr, error)
	destroy(h uintptr)
	createChannel(h uintptr, appID, channelKey, name uintptr, uid uint32, cfg uintptr) bool
	createChannelWithAccount(h uintptr, appID, channelKey, name, account, cfg uintptr) bool
	leaveChannel(h uintptr) bool
	release(h uintptr) bool
	stopped(h uintptr) bool
	updateMixMode(h uintptr, width, height int32, videoMix bool)
	setVideoMixingLayout(h uintptr, layout *nativeLayout) int32
	startService(h uintptr) int32
	stopService(h uintptr) int32
	setUserBackground(h uintptr, uid uint32, imagePath *byte) int32
	updateSubscribeVideoUIDs(h uintptr, uids []uint32) int32
	updateSubscribeAudioUIDs(h uintptr, uids []uint32) int32
	uidByUserAccount(h uintptr, account *byte) uint32
	userAccountByUID(h uintptr, uid uint32, buf []byte) uint32
	setLogLevel(h uintptr, level int32)
	setKeepLastFrame(h uintptr, keep bool)
	storageDir(h uintptr) string
}

// libSDK forwards to the platform binding (purego or cgo).
type libSDK struct{}

func (libSDK) create() (uintptr, error) { return sdkCreate() }
func (libSDK) destroy(h uintptr)        { sdkDestroy(h) }

func (libSDK) createChannel(h uintptr, appID, channelKey, name uintptr, uid uint32, cfg uintptr) bool {
	return sdkCreateChannel(h, appID, channelKey, name, uid, cfg)
}

func (libSDK) createChannelWithAccount(h uintptr, appID, channelKey, name, account, cfg uintptr) bool {
	return sdkCreateChannelWithAccount(h, appID, channelKey, name, account, cfg)
}

func (libSDK) leaveChannel(h uintptr) bool { return sdkLeaveChannel(h) }
func (libSDK) release(h uintptr) bool      { return sdkRelease(h) }
func (libSDK) stopped(h uintptr) bool      { return sdkStopped(h) }

func (libSDK) updateMixMode(h uintptr, width, height int32, videoMix bool) {
	sdkUpdateMixMode(h, width, height, videoMix)
}

func (libSDK) setVideoMixingLayout(h uintptr, layout *nativeLayout) int32 {
	return sdkSetVideoMixingLayout(h, layout)
}

func (libSDK) startService(h uintptr) int32 { return sdkStartService(h) }
func (libSDK) stopService(h uintptr) int32  { return sdkStopService(h) }

func (libSDK) setUserBackground(h uintptr, uid uint32, imagePath *byte) int32 {
	return sdkSetUserBackground(h, uid, imagePath)
}

func (libSDK) updateSubscribeVideoUIDs(h uintptr, uids []uint32) int32 {
	return sdkUpdateSubscribeVideoUIDs(h, uids)
}

func (libSDK) updateSubscribeAudioUIDs(h uintptr, uids []uint32) int32 {
	return sdkUpdateSubscribeAudioUIDs(h, uids)
}

func (libSDK) uidByUserAccount(h uintptr, account *byte) uint32 {
	return sdkUIDByUserAccount(h, account)
}

func (libSDK) userAccountByUID(h uintptr, uid uint32, buf []byte) uint32 {
	return sdkUserAccountByUID(h, uid, buf)
}

func (libSDK) setLogLevel(h uintptr, level int32)    { sdkSetLogLevel(h, level) }
func (libSDK) setKeepLastFrame(h uintptr, keep bool) { sdkSetKeepLastFrame(h, keep) }
func (libSDK) storageDir(h uintptr) string           { return sdkStorageDir(h) }

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
