package recording

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/thesyncim/recording/internal/log"
)

var (
	// ErrRecordingPathUnset is returned by RecordingPath before any path was set.
	ErrRecordingPathUnset = errors.New("recording path not set")
	// ErrInvalidUTF8 is returned when a stored recording path is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("recording path is not valid UTF-8")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid recording config")
)

// MixedAVCodec selects how mixed audio and video are written.
type MixedAVCodec int32

const (
	MixedAVDefault MixedAVCodec = 0 // separate audio and video files
	MixedAVCodecV1 MixedAVCodec = 1 // single file, fixed audio bitrate
	MixedAVCodecV2 MixedAVCodec = 2 // single file, recommended
)

// AudioFormat selects the audio the engine delivers or writes (decodeAudio).
type AudioFormat int32

const (
	AudioFormatDefault  AudioFormat = 0 // recorded file
	AudioFormatAACFrame AudioFormat = 1
	AudioFormatPCMFrame AudioFormat = 2
	AudioFormatMixedPCM AudioFormat = 3
)

// VideoFormat selects the video the engine delivers or writes (decodeVideo).
type VideoFormat int32

const (
	VideoFormatDefault      VideoFormat = 0 // recorded file
	VideoFormatH264Frame    VideoFormat = 1
	VideoFormatYUVFrame     VideoFormat = 2
	VideoFormatJPGFrame     VideoFormat = 3
	VideoFormatJPGFile      VideoFormat = 4
	VideoFormatJPGVideoFile VideoFormat = 5
)

// ChannelProfile must match the profile used by the other channel members.
type ChannelProfile int32

const (
	ChannelProfileCommunication ChannelProfile = 0
	ChannelProfileLiveBroadcast ChannelProfile = 1
)

// StreamType selects which simulcast stream is recorded.
type StreamType int32

const (
	StreamTypeHigh StreamType = 0
	StreamTypeLow  StreamType = 1
)

// TriggerMode controls whether recording starts on join or on StartService.
type TriggerMode int32

const (
	TriggerAutomatic TriggerMode = 0
	TriggerManual    TriggerMode = 1
)

// Language tells the engine which binding drives it.
type Language int32

const (
	LanguageCPP  Language = 1
	LanguageJava Language = 2
)

// AudioProfile selects the recorded audio quality.
type AudioProfile int32

const (
	AudioProfileDefault           AudioProfile = 0 // LC-AAC 48 kHz mono
	AudioProfileHighQuality       AudioProfile = 1 // LC-AAC 48 kHz mono, 128 kbps
	AudioProfileHighQualityStereo AudioProfile = 2 // LC-AAC 48 kHz stereo, 192 kbps
)

// Config is a recording configuration. It mirrors the SDK's RecordingConfig;
// nothing is handed to the engine until Recorder.CreateChannel marshals it.
//
// The zero value is not the SDK default; use NewConfig.
type Config struct {
	mixingEnabled bool
	recordingPath []byte // nil until SetRecordingPath

	AudioOnly               bool
	VideoOnly               bool
	MixedVideoAudio         MixedAVCodec
	MixResolution           string // "width,height,fps,kbps"
	DecryptionMode          string
	Secret                  string
	RecordFileRootDir       string
	CfgFilePath             string
	DecodeAudio             AudioFormat
	DecodeVideo             VideoFormat
	LowUDPPort              int
	HighUDPPort             int
	IdleLimitSec            int
	CaptureInterval         int
	AudioIndicationInterval int
	ChannelProfile          ChannelProfile
	StreamType              StreamType
	TriggerMode             TriggerMode
	Language                Language
	ProxyServer             string
	AudioProfile            AudioProfile
	DefaultVideoBackground  string
	DefaultUserBackground   string
	AutoSubscribe           bool
	EnableCloudProxy        bool
	SubscribeVideoUIDs      []uint32
	SubscribeAudioUIDs      []uint32
	EnableIntraRequest      bool
	EnableH265Support       bool

	logger zerolog.Logger
}

// NewConfig returns a configuration with the SDK defaults: mixing disabled,
// recording path unset, auto subscribe on.
func NewConfig() *Config {
	return &Config{
		IdleLimitSec:       300,
		CaptureInterval:    5,
		Language:           LanguageCPP,
		AutoSubscribe:      true,
		EnableIntraRequest: true,
		logger:             log.WithComponent("config"),
	}
}

// IsMixingEnabled reports whether audio/video mixing is on.
func (c *Config) IsMixingEnabled() bool {
	return c.mixingEnabled
}

// SetMixingEnabled turns mixing on or off.
func (c *Config) SetMixingEnabled(enabled bool) {
	c.logger.Debug().Bool(log.FieldMixing, enabled).Msg("set mixing enabled")
	c.mixingEnabled = enabled
}

// SetRecordingPath stores a copy of path, replacing any previous one. The
// engine receives it as its applite directory when the channel is created.
// Text with an embedded NUL byte cannot cross the native boundary and is rejected.
func (c *Config) SetRecordingPath(path string) error {
	if strings.IndexByte(path, 0) >= 0 {
		return fmt.Errorf("recording path: %w", ErrInvalidText)
	}
	buf := make([]byte, len(path))
	copy(buf, path)
	c.recordingPath = buf
	c.logger.Debug().Str(log.FieldPath, path).Msg("set recording path")
	return nil
}

// RecordingPath returns the stored recording path.
func (c *Config) RecordingPath() (string, error) {
	if c.recordingPath == nil {
		return "", ErrRecordingPathUnset
	}
	if !utf8.Valid(c.recordingPath) {
		return "", ErrInvalidUTF8
	}
	return string(c.recordingPath), nil
}

// SetSubscribeVideoUIDs restricts video recording to uids. Only used when
// AutoSubscribe is false.
func (c *Config) SetSubscribeVideoUIDs(uids ...uint32) {
	c.SubscribeVideoUIDs = append([]uint32(nil), uids...)
}

// SetSubscribeAudioUIDs restricts audio recording to uids. Only used when
// AutoSubscribe is false.
func (c *Config) SetSubscribeAudioUIDs(uids ...uint32) {
	c.SubscribeAudioUIDs = append([]uint32(nil), uids...)
}

// Validate rejects combinations the engine is known to refuse.
func (c *Config) Validate() error {
	var errs []error
	if c.AudioOnly && c.VideoOnly {
		errs = append(errs, errors.New("audio only and video only are exclusive"))
	}
	if c.LowUDPPort < 0 || c.LowUDPPort > 65535 || c.HighUDPPort < 0 || c.HighUDPPort > 65535 {
		errs = append(errs, errors.New("udp ports must be within 0-65535"))
	}
	if c.HighUDPPort != 0 && c.LowUDPPort > c.HighUDPPort {
		errs = append(errs, fmt.Errorf("low udp port %d above high udp port %d", c.LowUDPPort, c.HighUDPPort))
	}
	if c.IdleLimitSec < 0 {
		errs = append(errs, errors.New("idle limit must not be negative"))
	}
	if c.mixingEnabled && c.MixResolution != "" {
		if _, err := ParseMixResolution(c.MixResolution); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// MixResolution is the parsed form of Config.MixResolution.
type MixResolution struct {
	Width, Height, FPS, Kbps int
}

func (m MixResolution) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", m.Width, m.Height, m.FPS, m.Kbps)
}

// ParseMixResolution parses "width,height,fps,kbps".
func ParseMixResolution(s string) (MixResolution, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return MixResolution{}, fmt.Errorf("mix resolution %q: want width,height,fps,kbps", s)
	}
	var vals [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 {
			return MixResolution{}, fmt.Errorf("mix resolution %q: field %d must be a positive integer", s, i+1)
		}
		vals[i] = v
	}
	return MixResolution{Width: vals[0], Height: vals[1], FPS: vals[2], Kbps: vals[3]}, nil
}

// FormatUIDList renders uids in the SDK's comma-separated form.
func FormatUIDList(uids []uint32) string {
	if len(uids) == 0 {
		return ""
	}
	var b strings.Builder
	for i, uid := range uids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(uid), 10))
	}
	return b.String()
}

// ParseUIDList parses a comma-separated uid list. Empty items and duplicates are dropped.
func ParseUIDList(s string) ([]uint32, error) {
	var uids []uint32
	seen := make(map[uint32]struct{})
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		v, err := strconv.ParseUint(item, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("uid %q: %w", item, err)
		}
		uid := uint32(v)
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		uids = append(uids, uid)
	}
	return uids, nil
}
