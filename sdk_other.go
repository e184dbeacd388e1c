//go:build !linux

package recording

// IsAvailable reports whether libagora_recording is usable.
// The SDK ships for linux only.
func IsAvailable() bool { return false }

func sdkCreate() (uintptr, error) { return 0, ErrUnsupportedPlatform }
func sdkDestroy(uintptr)          {}

func cAlloc(size uintptr) uintptr { return goAlloc(size) }
func cFree(p uintptr)             { goFree(p) }

func sdkCreateChannel(uintptr, uintptr, uintptr, uintptr, uint32, uintptr) bool { return false }

func sdkCreateChannelWithAccount(uintptr, uintptr, uintptr, uintptr, uintptr, uintptr) bool {
	return false
}

func sdkLeaveChannel(uintptr) bool                         { return false }
func sdkRelease(uintptr) bool                              { return false }
func sdkStopped(uintptr) bool                              { return true }
func sdkUpdateMixMode(uintptr, int32, int32, bool)         {}
func sdkSetVideoMixingLayout(uintptr, *nativeLayout) int32 { return -int32(StatusInternalFailed) }
func sdkStartService(uintptr) int32                        { return int32(StatusFailed) }
func sdkStopService(uintptr) int32                         { return int32(StatusFailed) }
func sdkSetUserBackground(uintptr, uint32, *byte) int32    { return -int32(StatusInternalFailed) }
func sdkUpdateSubscribeVideoUIDs(uintptr, []uint32) int32  { return -int32(StatusFailed) }
func sdkUpdateSubscribeAudioUIDs(uintptr, []uint32) int32  { return -int32(StatusFailed) }
func sdkUIDByUserAccount(uintptr, *byte) uint32            { return 0 }
func sdkUserAccountByUID(uintptr, uint32, []byte) uint32   { return 0 }
func sdkSetLogLevel(uintptr, int32)                        {}
func sdkSetKeepLastFrame(uintptr, bool)                    {}
func sdkStorageDir(uintptr) string                         { return "" }
