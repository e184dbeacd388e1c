package recording

import (
	"fmt"
	"runtime"
	"strings"
	"unsafe"
)

// cstrings owns NUL-terminated copies of Go strings for the duration of one
// native call. Buffers stay pinned until free.
type cstrings struct {
	pinner runtime.Pinner
	bufs   [][]byte
}

// add copies s into a pinned NUL-terminated buffer and returns its first byte.
func (c *cstrings) add(s string) (*byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidText, s)
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	c.pinner.Pin(&buf[0])
	c.bufs = append(c.bufs, buf)
	return &buf[0], nil
}

// optional is add for fields where the SDK reads NULL as "unset".
func (c *cstrings) optional(s string) (uintptr, error) {
	if s == "" {
		return 0, nil
	}
	p, err := c.add(s)
	if err != nil {
		return 0, err
	}
	return uintptr(unsafe.Pointer(p)), nil
}

// pin keeps an arbitrary Go object in place for the native side.
func (c *cstrings) pin(ptr any) {
	c.pinner.Pin(ptr)
}

// free unpins every buffer. Pointers handed out earlier must no longer be used.
// Call it before the arena becomes unreachable.
func (c *cstrings) free() {
	c.pinner.Unpin()
	c.bufs = nil
}

// goStringFromPtr converts a C string pointer to a Go string.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	var length int
	for *(*byte)(unsafe.Add(p, length)) != 0 {
		length++
		if length > maxNativeString {
			break
		}
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), length))
}

// maxNativeString bounds reads of native strings (paths, user accounts).
const maxNativeString = 4096

// stringArena allocates C strings, NULL for "".
type stringArena interface {
	optional(s string) (uintptr, error)
}

// marshalConfig lays cfg out as an AgoraRecordingConfig. Strings are allocated
// in arena and remain valid until it is freed; the struct itself is Go memory.
func marshalConfig(cfg *Config, arena stringArena) (*nativeConfig, error) {
	n := &nativeConfig{
		IsAudioOnly:             boolToInt32(cfg.AudioOnly),
		IsVideoOnly:             boolToInt32(cfg.VideoOnly),
		IsMixingEnabled:         boolToInt32(cfg.mixingEnabled),
		MixedVideoAudio:         int32(cfg.MixedVideoAudio),
		DecodeVideo:             int32(cfg.DecodeVideo),
		DecodeAudio:             int32(cfg.DecodeAudio),
		LowUDPPort:              int32(cfg.LowUDPPort),
		HighUDPPort:             int32(cfg.HighUDPPort),
		IdleLimitSec:            int32(cfg.IdleLimitSec),
		CaptureInterval:         int32(cfg.CaptureInterval),
		AudioIndicationInterval: int32(cfg.AudioIndicationInterval),
		ChannelProfile:          int32(cfg.ChannelProfile),
		StreamType:              int32(cfg.StreamType),
		TriggerMode:             int32(cfg.TriggerMode),
		Lang:                    int32(cfg.Language),
		AudioProfile:            int32(cfg.AudioProfile),
		AutoSubscribe:           boolToInt32(cfg.AutoSubscribe),
		EnableCloudProxy:        boolToInt32(cfg.EnableCloudProxy),
		EnableIntraRequest:      boolToInt32(cfg.EnableIntraRequest),
		EnableH265Support:       boolToInt32(cfg.EnableH265Support),
	}

	var path string
	if cfg.recordingPath != nil {
		path = string(cfg.recordingPath)
	}

	strs := []struct {
		dst *uintptr
		val string
	}{
		{&n.MixResolution, cfg.MixResolution},
		{&n.DecryptionMode, cfg.DecryptionMode},
		{&n.Secret, cfg.Secret},
		{&n.AppliteDir, path},
		{&n.RecordFileRootDir, cfg.RecordFileRootDir},
		{&n.CfgFilePath, cfg.CfgFilePath},
		{&n.ProxyServer, cfg.ProxyServer},
		{&n.DefaultVideoBg, cfg.DefaultVideoBackground},
		{&n.DefaultUserBg, cfg.DefaultUserBackground},
		{&n.SubscribeVideoUIDs, FormatUIDList(cfg.SubscribeVideoUIDs)},
		{&n.SubscribeAudioUIDs, FormatUIDList(cfg.SubscribeAudioUIDs)},
	}
	for _, s := range strs {
		p, err := arena.optional(s.val)
		if err != nil {
			return nil, err
		}
		*s.dst = p
	}
	return n, nil
}

// marshalLayout lays l out as an AgoraVideoMixingLayout.
func marshalLayout(l *Layout, arena *cstrings) (*nativeLayout, error) {
	n := &nativeLayout{
		CanvasWidth:   int32(l.CanvasWidth),
		CanvasHeight:  int32(l.CanvasHeight),
		RegionCount:   uint32(len(l.Regions)),
		AppDataLength: int32(len(l.AppData)),
		KeepLastFrame: boolToInt32(l.KeepLastFrame),
	}

	var err error
	if n.BackgroundColor, err = arena.optional(l.BackgroundColor); err != nil {
		return nil, err
	}
	if n.AppData, err = arena.optional(l.AppData); err != nil {
		return nil, err
	}

	if len(l.Regions) > 0 {
		regions := make([]nativeRegion, len(l.Regions))
		for i, r := range l.Regions {
			regions[i] = nativeRegion{
				UID:        r.UID,
				X:          r.X,
				Y:          r.Y,
				Width:      r.Width,
				Height:     r.Height,
				ZOrder:     int32(r.ZOrder),
				Alpha:      r.Alpha,
				RenderMode: int32(r.RenderMode),
			}
		}
		arena.pin(&regions[0])
		n.Regions = uintptr(unsafe.Pointer(&regions[0]))
	}

	arena.pin(n)
	return n, nil
}
