//go:build linux && !cgo

// Package recording binds libagora_recording using purego.
//
// Library locations checked (in order):
//   - AGORA_RECORDING_LIB_PATH environment variable (full path to the .so)
//   - AGORA_SDK_LIB_PATH environment variable (directory)
//   - next to the executable, ../lib, ../../build
//   - build/ under the working directory, source root and module root
//   - system library paths

package recording

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	agoraRecOnce    sync.Once
	agoraRecHandle  uintptr
	agoraRecInitErr error
	agoraRecLoaded  bool
)

// libagora_recording function pointers
var (
	agoraRecCreate                   func() uintptr
	agoraRecDestroy                  func(rec uintptr)
	agoraRecCreateChannel            func(rec, appID, channelKey, name uintptr, uid uint32, config uintptr) int32
	agoraRecCreateChannelWithAccount func(rec, appID, channelKey, name, account, config uintptr) int32
	agoraRecLeaveChannel             func(rec uintptr) int32
	agoraRecRelease                  func(rec uintptr) int32
	agoraRecStopped                  func(rec uintptr) int32
	agoraRecUpdateMixMode            func(rec uintptr, width, height, isVideoMix int32)
	agoraRecSetVideoMixingLayout     func(rec, layout uintptr) int32
	agoraRecStartService             func(rec uintptr) int32
	agoraRecStopService              func(rec uintptr) int32
	agoraRecSetUserBackground        func(rec uintptr, uid uint32, imagePath uintptr) int32
	agoraRecUpdateSubscribeVideoUIDs func(rec, uids uintptr, num uint32) int32
	agoraRecUpdateSubscribeAudioUIDs func(rec, uids uintptr, num uint32) int32
	agoraRecUIDByUserAccount         func(rec, account uintptr) uint32
	agoraRecUserAccountByUID         func(rec uintptr, uid uint32, buf uintptr, bufLen uint32) uint32
	agoraRecSetLogLevel              func(rec uintptr, level int32)
	agoraRecSetKeepLastFrame         func(rec uintptr, keep int32)
	agoraRecStorageDir               func(rec uintptr) uintptr
)

const agoraRecLibName = "libagora_recording.so"

func loadAgoraRecording() error {
	agoraRecOnce.Do(func() {
		agoraRecInitErr = loadAgoraRecordingLib()
		if agoraRecInitErr == nil {
			agoraRecLoaded = true
		}
	})
	return agoraRecInitErr
}

func loadAgoraRecordingLib() error {
	var lastErr error
	for _, path := range agoraRecordingLibPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		agoraRecHandle = handle
		if err := loadAgoraRecordingSymbols(); err != nil {
			purego.Dlclose(handle)
			lastErr = err
			continue
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("%w: %w", ErrLibraryNotLoaded, lastErr)
	}
	return fmt.Errorf("%w: %s not found in any standard location", ErrLibraryNotLoaded, agoraRecLibName)
}

func agoraRecordingLibPaths() []string {
	var paths []string

	if envPath := os.Getenv("AGORA_RECORDING_LIB_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}
	if envPath := os.Getenv("AGORA_SDK_LIB_PATH"); envPath != "" {
		paths = append(paths, filepath.Join(envPath, agoraRecLibName))
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, agoraRecLibName),
			filepath.Join(exeDir, "..", "lib", agoraRecLibName),
			filepath.Join(exeDir, "..", "..", "build", agoraRecLibName),
		)
	}

	if wd, err := os.Getwd(); err == nil {
		paths = append(paths,
			filepath.Join(wd, "build", agoraRecLibName),
			filepath.Join(wd, "..", "build", agoraRecLibName),
			filepath.Join(wd, "..", "..", "build", agoraRecLibName),
		)
	}

	if root := findSourceRoot(); root != "" {
		paths = append(paths, filepath.Join(root, "build", agoraRecLibName))
	}
	if root := findModuleRoot(); root != "" {
		paths = append(paths, filepath.Join(root, "build", agoraRecLibName))
	}

	// Let the dynamic loader search LD_LIBRARY_PATH and ld.so.cache.
	paths = append(paths,
		agoraRecLibName,
		"/usr/local/lib/"+agoraRecLibName,
		"/usr/lib/"+agoraRecLibName,
	)
	return paths
}

func loadAgoraRecordingSymbols() (err error) {
	// RegisterLibFunc panics on a missing symbol; report it as a load failure.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("missing symbol: %v", r)
		}
	}()

	purego.RegisterLibFunc(&agoraRecCreate, agoraRecHandle, "agora_rec_sdk_create")
	purego.RegisterLibFunc(&agoraRecDestroy, agoraRecHandle, "agora_rec_sdk_destroy")
	purego.RegisterLibFunc(&agoraRecCreateChannel, agoraRecHandle, "agora_rec_sdk_create_channel")
	purego.RegisterLibFunc(&agoraRecCreateChannelWithAccount, agoraRecHandle, "agora_rec_sdk_create_channel_with_account")
	purego.RegisterLibFunc(&agoraRecLeaveChannel, agoraRecHandle, "agora_rec_sdk_leave_channel")
	purego.RegisterLibFunc(&agoraRecRelease, agoraRecHandle, "agora_rec_sdk_release")
	purego.RegisterLibFunc(&agoraRecStopped, agoraRecHandle, "agora_rec_sdk_stopped")
	purego.RegisterLibFunc(&agoraRecUpdateMixMode, agoraRecHandle, "agora_rec_sdk_update_mix_mode")
	purego.RegisterLibFunc(&agoraRecSetVideoMixingLayout, agoraRecHandle, "agora_rec_sdk_set_video_mixing_layout")
	purego.RegisterLibFunc(&agoraRecStartService, agoraRecHandle, "agora_rec_sdk_start_service")
	purego.RegisterLibFunc(&agoraRecStopService, agoraRecHandle, "agora_rec_sdk_stop_service")
	purego.RegisterLibFunc(&agoraRecSetUserBackground, agoraRecHandle, "agora_rec_sdk_set_user_background")
	purego.RegisterLibFunc(&agoraRecUpdateSubscribeVideoUIDs, agoraRecHandle, "agora_rec_sdk_update_subscribe_video_uids")
	purego.RegisterLibFunc(&agoraRecUpdateSubscribeAudioUIDs, agoraRecHandle, "agora_rec_sdk_update_subscribe_audio_uids")
	purego.RegisterLibFunc(&agoraRecUIDByUserAccount, agoraRecHandle, "agora_rec_sdk_uid_by_user_account")
	purego.RegisterLibFunc(&agoraRecUserAccountByUID, agoraRecHandle, "agora_rec_sdk_user_account_by_uid")
	purego.RegisterLibFunc(&agoraRecSetLogLevel, agoraRecHandle, "agora_rec_sdk_set_log_level")
	purego.RegisterLibFunc(&agoraRecSetKeepLastFrame, agoraRecHandle, "agora_rec_sdk_set_keep_last_frame")
	purego.RegisterLibFunc(&agoraRecStorageDir, agoraRecHandle, "agora_rec_sdk_storage_dir")
	return nil
}

var (
	libcOnce   sync.Once
	libcCalloc func(n, size uintptr) uintptr
	libcFree   func(p uintptr)
)

func loadLibc() bool {
	libcOnce.Do(func() {
		for _, name := range []string{"libc.so.6", "libc.so"} {
			handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
			if err != nil {
				continue
			}
			purego.RegisterLibFunc(&libcCalloc, handle, "calloc")
			purego.RegisterLibFunc(&libcFree, handle, "free")
			return
		}
	})
	return libcCalloc != nil
}

// cAlloc returns zeroed memory from the C allocator, or from goHeap when
// libc cannot be opened.
func cAlloc(size uintptr) uintptr {
	if !loadLibc() {
		return goAlloc(size)
	}
	return libcCalloc(1, size)
}

func cFree(p uintptr) {
	if !loadLibc() {
		goFree(p)
		return
	}
	libcFree(p)
}

// IsAvailable reports whether libagora_recording could be loaded.
func IsAvailable() bool {
	if err := loadAgoraRecording(); err != nil {
		return false
	}
	return agoraRecLoaded
}

func sdkCreate() (uintptr, error) {
	if err := loadAgoraRecording(); err != nil {
		return 0, err
	}
	handle := agoraRecCreate()
	if handle == 0 {
		return 0, ErrCreateEngine
	}
	return handle, nil
}

func sdkDestroy(h uintptr) {
	if h != 0 && agoraRecDestroy != nil {
		agoraRecDestroy(h)
	}
}

func sdkCreateChannel(h, appID, channelKey, name uintptr, uid uint32, cfg uintptr) bool {
	return agoraRecCreateChannel(h, appID, channelKey, name, uid, cfg) != 0
}

func sdkCreateChannelWithAccount(h, appID, channelKey, name, account, cfg uintptr) bool {
	return agoraRecCreateChannelWithAccount(h, appID, channelKey, name, account, cfg) != 0
}

func sdkLeaveChannel(h uintptr) bool { return agoraRecLeaveChannel(h) != 0 }
func sdkRelease(h uintptr) bool      { return agoraRecRelease(h) != 0 }
func sdkStopped(h uintptr) bool      { return agoraRecStopped(h) != 0 }

func sdkUpdateMixMode(h uintptr, width, height int32, videoMix bool) {
	agoraRecUpdateMixMode(h, width, height, boolToInt32(videoMix))
}

func sdkSetVideoMixingLayout(h uintptr, layout *nativeLayout) int32 {
	return agoraRecSetVideoMixingLayout(h, uintptr(unsafe.Pointer(layout)))
}

func sdkStartService(h uintptr) int32 { return agoraRecStartService(h) }
func sdkStopService(h uintptr) int32  { return agoraRecStopService(h) }

func sdkSetUserBackground(h uintptr, uid uint32, imagePath *byte) int32 {
	return agoraRecSetUserBackground(h, uid, uintptr(unsafe.Pointer(imagePath)))
}

func sdkUpdateSubscribeVideoUIDs(h uintptr, uids []uint32) int32 {
	var ptr uintptr
	if len(uids) > 0 {
		ptr = uintptr(unsafe.Pointer(&uids[0]))
	}
	return agoraRecUpdateSubscribeVideoUIDs(h, ptr, uint32(len(uids)))
}

func sdkUpdateSubscribeAudioUIDs(h uintptr, uids []uint32) int32 {
	var ptr uintptr
	if len(uids) > 0 {
		ptr = uintptr(unsafe.Pointer(&uids[0]))
	}
	return agoraRecUpdateSubscribeAudioUIDs(h, ptr, uint32(len(uids)))
}

func sdkUIDByUserAccount(h uintptr, account *byte) uint32 {
	return agoraRecUIDByUserAccount(h, uintptr(unsafe.Pointer(account)))
}

func sdkUserAccountByUID(h uintptr, uid uint32, buf []byte) uint32 {
	if len(buf) == 0 {
		return agoraRecUserAccountByUID(h, uid, 0, 0)
	}
	return agoraRecUserAccountByUID(h, uid, uintptr(unsafe.Pointer(&buf[0])), uint32(len(buf)))
}

func sdkSetLogLevel(h uintptr, level int32) { agoraRecSetLogLevel(h, level) }

func sdkSetKeepLastFrame(h uintptr, keep bool) {
	agoraRecSetKeepLastFrame(h, boolToInt32(keep))
}

func sdkStorageDir(h uintptr) string {
	return goStringFromPtr(agoraRecStorageDir(h))
}
