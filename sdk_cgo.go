//go:build linux && cgo

// Package recording binds libagora_recording using CGO.

package recording

/*
#cgo CFLAGS: -I${SRCDIR}/clib
#cgo linux LDFLAGS: -L${SRCDIR}/build -lagora_recording -Wl,-rpath,${SRCDIR}/build

#include "agora_recording.h"
#include <stdlib.h>
*/
import "C"

import "unsafe"

// IsAvailable reports whether libagora_recording is usable.
// With CGO this is always true since it links at build time.
func IsAvailable() bool {
	return true
}

func recorderPtr(h uintptr) *C.AgoraRecorder {
	return (*C.AgoraRecorder)(unsafe.Pointer(h))
}

func cchar(p *byte) *C.char {
	return (*C.char)(unsafe.Pointer(p))
}

// cstrAt converts the address of a cheap block.
func cstrAt(p uintptr) *C.char {
	return (*C.char)(unsafe.Pointer(p))
}

func cAlloc(size uintptr) uintptr {
	return uintptr(C.calloc(1, C.size_t(size)))
}

func cFree(p uintptr) {
	C.free(unsafe.Pointer(p))
}

func sdkCreate() (uintptr, error) {
	rec := C.agora_rec_sdk_create()
	if rec == nil {
		return 0, ErrCreateEngine
	}
	return uintptr(unsafe.Pointer(rec)), nil
}

func sdkDestroy(h uintptr) {
	if h != 0 {
		C.agora_rec_sdk_destroy(recorderPtr(h))
	}
}

func sdkCreateChannel(h, appID, channelKey, name uintptr, uid uint32, cfg uintptr) bool {
	return C.agora_rec_sdk_create_channel(
		recorderPtr(h),
		cstrAt(appID), cstrAt(channelKey), cstrAt(name),
		C.uint32_t(uid),
		(*C.AgoraRecordingConfig)(unsafe.Pointer(cfg)),
	) != 0
}

func sdkCreateChannelWithAccount(h, appID, channelKey, name, account, cfg uintptr) bool {
	return C.agora_rec_sdk_create_channel_with_account(
		recorderPtr(h),
		cstrAt(appID), cstrAt(channelKey), cstrAt(name), cstrAt(account),
		(*C.AgoraRecordingConfig)(unsafe.Pointer(cfg)),
	) != 0
}

func sdkLeaveChannel(h uintptr) bool {
	return C.agora_rec_sdk_leave_channel(recorderPtr(h)) != 0
}

func sdkRelease(h uintptr) bool {
	return C.agora_rec_sdk_release(recorderPtr(h)) != 0
}

func sdkStopped(h uintptr) bool {
	return C.agora_rec_sdk_stopped(recorderPtr(h)) != 0
}

func sdkUpdateMixMode(h uintptr, width, height int32, videoMix bool) {
	C.agora_rec_sdk_update_mix_mode(recorderPtr(h),
		C.int32_t(width), C.int32_t(height), C.int32_t(boolToInt32(videoMix)))
}

func sdkSetVideoMixingLayout(h uintptr, layout *nativeLayout) int32 {
	return int32(C.agora_rec_sdk_set_video_mixing_layout(recorderPtr(h),
		(*C.AgoraVideoMixingLayout)(unsafe.Pointer(layout))))
}

func sdkStartService(h uintptr) int32 {
	return int32(C.agora_rec_sdk_start_service(recorderPtr(h)))
}

func sdkStopService(h uintptr) int32 {
	return int32(C.agora_rec_sdk_stop_service(recorderPtr(h)))
}

func sdkSetUserBackground(h uintptr, uid uint32, imagePath *byte) int32 {
	return int32(C.agora_rec_sdk_set_user_background(recorderPtr(h), C.uint32_t(uid), cchar(imagePath)))
}

func sdkUpdateSubscribeVideoUIDs(h uintptr, uids []uint32) int32 {
	var ptr *C.uint32_t
	if len(uids) > 0 {
		ptr = (*C.uint32_t)(unsafe.Pointer(&uids[0]))
	}
	return int32(C.agora_rec_sdk_update_subscribe_video_uids(recorderPtr(h), ptr, C.uint32_t(len(uids))))
}

func sdkUpdateSubscribeAudioUIDs(h uintptr, uids []uint32) int32 {
	var ptr *C.uint32_t
	if len(uids) > 0 {
		ptr = (*C.uint32_t)(unsafe.Pointer(&uids[0]))
	}
	return int32(C.agora_rec_sdk_update_subscribe_audio_uids(recorderPtr(h), ptr, C.uint32_t(len(uids))))
}

func sdkUIDByUserAccount(h uintptr, account *byte) uint32 {
	return uint32(C.agora_rec_sdk_uid_by_user_account(recorderPtr(h), cchar(account)))
}

func sdkUserAccountByUID(h uintptr, uid uint32, buf []byte) uint32 {
	var ptr *C.char
	if len(buf) > 0 {
		ptr = (*C.char)(unsafe.Pointer(&buf[0]))
	}
	return uint32(C.agora_rec_sdk_user_account_by_uid(recorderPtr(h), C.uint32_t(uid), ptr, C.uint32_t(len(buf))))
}

func sdkSetLogLevel(h uintptr, level int32) {
	C.agora_rec_sdk_set_log_level(recorderPtr(h), C.int32_t(level))
}

func sdkSetKeepLastFrame(h uintptr, keep bool) {
	C.agora_rec_sdk_set_keep_last_frame(recorderPtr(h), C.int32_t(boolToInt32(keep)))
}

func sdkStorageDir(h uintptr) string {
	dir := C.agora_rec_sdk_storage_dir(recorderPtr(h))
	if dir == nil {
		return ""
	}
	return C.GoString(dir)
}
