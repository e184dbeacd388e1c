package recording

import (
	"sync"
	"unsafe"
)

// joinCall is what the engine saw on a create channel call, decoded while
// the call was in flight.
type joinCall struct {
	AppID       string
	ChannelKey  string
	Channel     string
	UID         uint32
	UserAccount string
	Config      nativeConfig
	AppliteDir  string
	MixRes      string
	VideoUIDs   string
	AudioUIDs   string
}

type layoutCall struct {
	CanvasWidth     int32
	CanvasHeight    int32
	BackgroundColor string
	AppData         string
	KeepLastFrame   bool
	Regions         []nativeRegion
}

type mixCall struct {
	Width, Height int32
	VideoMix      bool
}

// fakeSDK stands in for libagora_recording.
type fakeSDK struct {
	mu sync.Mutex

	createErr    error
	joinOK       bool
	leaveOK      bool
	releaseOK    bool
	isStopped    bool
	layoutStatus int32
	serviceStat  int32
	accounts     map[uint32]string
	storage      string

	calls       []string
	joins       []joinCall
	mixes       []mixCall
	layouts     []layoutCall
	backgrounds map[uint32]string
	videoUIDs   []uint32
	audioUIDs   []uint32
	logLevel    int32
	keepLast    bool
	destroyed   uintptr

	// heldConfig is the config address of the last join, kept the way the
	// engine keeps it.
	heldConfig uintptr
}

func newFakeSDK() *fakeSDK {
	return &fakeSDK{
		joinOK:      true,
		leaveOK:     true,
		releaseOK:   true,
		accounts:    map[uint32]string{},
		backgrounds: map[uint32]string{},
	}
}

func (f *fakeSDK) record(op string) {
	f.calls = append(f.calls, op)
}

func (f *fakeSDK) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func cstr(p *byte) string {
	return goStringFromPtr(uintptr(unsafe.Pointer(p)))
}

func decodeJoin(p uintptr) joinCall {
	cfg := (*nativeConfig)(unsafe.Pointer(p))
	return joinCall{
		Config:     *cfg,
		AppliteDir: goStringFromPtr(cfg.AppliteDir),
		MixRes:     goStringFromPtr(cfg.MixResolution),
		VideoUIDs:  goStringFromPtr(cfg.SubscribeVideoUIDs),
		AudioUIDs:  goStringFromPtr(cfg.SubscribeAudioUIDs),
	}
}

func (f *fakeSDK) create() (uintptr, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opCreate)
	if f.createErr != nil {
		return 0, f.createErr
	}
	return 0xa11ce, nil
}

func (f *fakeSDK) destroy(h uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("destroy")
	f.destroyed = h
}

func (f *fakeSDK) createChannel(_, appID, channelKey, name uintptr, uid uint32, cfg uintptr) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opCreateChannel)
	j := decodeJoin(cfg)
	j.AppID, j.ChannelKey, j.Channel, j.UID = goStringFromPtr(appID), goStringFromPtr(channelKey), goStringFromPtr(name), uid
	f.joins = append(f.joins, j)
	f.heldConfig = cfg
	return f.joinOK
}

func (f *fakeSDK) createChannelWithAccount(_, appID, channelKey, name, account, cfg uintptr) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opCreateChannelWithAccount)
	j := decodeJoin(cfg)
	j.AppID, j.ChannelKey, j.Channel = goStringFromPtr(appID), goStringFromPtr(channelKey), goStringFromPtr(name)
	j.UserAccount = goStringFromPtr(account)
	f.joins = append(f.joins, j)
	f.heldConfig = cfg
	return f.joinOK
}

func (f *fakeSDK) leaveChannel(uintptr) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opLeaveChannel)
	return f.leaveOK
}

func (f *fakeSDK) release(uintptr) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opRelease)
	return f.releaseOK
}

func (f *fakeSDK) stopped(uintptr) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isStopped
}

func (f *fakeSDK) setStopped(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isStopped = v
}

func (f *fakeSDK) updateMixMode(_ uintptr, width, height int32, videoMix bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opUpdateMixMode)
	f.mixes = append(f.mixes, mixCall{Width: width, Height: height, VideoMix: videoMix})
}

func (f *fakeSDK) setVideoMixingLayout(_ uintptr, l *nativeLayout) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opSetVideoMixingLayout)
	call := layoutCall{
		CanvasWidth:     l.CanvasWidth,
		CanvasHeight:    l.CanvasHeight,
		BackgroundColor: goStringFromPtr(l.BackgroundColor),
		AppData:         goStringFromPtr(l.AppData),
		KeepLastFrame:   l.KeepLastFrame != 0,
	}
	if l.RegionCount > 0 {
		regions := unsafe.Slice((*nativeRegion)(unsafe.Pointer(l.Regions)), l.RegionCount)
		call.Regions = append([]nativeRegion(nil), regions...)
	}
	f.layouts = append(f.layouts, call)
	return f.layoutStatus
}

func (f *fakeSDK) startService(uintptr) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opStartService)
	return f.serviceStat
}

func (f *fakeSDK) stopService(uintptr) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opStopService)
	return f.serviceStat
}

func (f *fakeSDK) setUserBackground(_ uintptr, uid uint32, imagePath *byte) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opSetUserBackground)
	f.backgrounds[uid] = cstr(imagePath)
	return 0
}

func (f *fakeSDK) updateSubscribeVideoUIDs(_ uintptr, uids []uint32) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opUpdateSubscribeVideo)
	f.videoUIDs = append([]uint32(nil), uids...)
	return 0
}

func (f *fakeSDK) updateSubscribeAudioUIDs(_ uintptr, uids []uint32) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opUpdateSubscribeAudio)
	f.audioUIDs = append([]uint32(nil), uids...)
	return 0
}

func (f *fakeSDK) uidByUserAccount(_ uintptr, account *byte) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opUIDByUserAccount)
	want := cstr(account)
	for uid, acc := range f.accounts {
		if acc == want {
			return uid
		}
	}
	return 0
}

// userAccountByUID follows the native contract: it writes when the account
// fits and always returns the account's length.
func (f *fakeSDK) userAccountByUID(_ uintptr, uid uint32, buf []byte) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(opUserAccountByUID)
	acc := f.accounts[uid]
	if len(acc) <= len(buf) {
		copy(buf, acc)
	}
	return uint32(len(acc))
}

func (f *fakeSDK) setLogLevel(_ uintptr, level int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set_log_level")
	f.logLevel = level
}

func (f *fakeSDK) setKeepLastFrame(_ uintptr, keep bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set_keep_last_frame")
	f.keepLast = keep
}

func (f *fakeSDK) storageDir(uintptr) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storage
}

var _ nativeSDK = (*fakeSDK)(nil)
