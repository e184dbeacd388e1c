package recording

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests drive the real libagora_recording and are skipped when it
// cannot be loaded.

func TestNativeRecorderCreateRelease(t *testing.T) {
	if !IsAvailable() {
		t.Skip("libagora_recording not available")
	}

	rec, err := NewRecorder()
	require.NoError(t, err)
	rec.SetLogLevel(LogLevelWarn)
	rec.SetKeepLastFrame(false)
	assert.Equal(t, "", rec.StorageDir())

	require.NoError(t, rec.Release())
	assert.ErrorIs(t, rec.Release(), ErrReleased)
}

// TestNativeSessionRecords joins a real channel for a few seconds. It needs
// AGORA_TEST_APP_ID and AGORA_TEST_APPLITE_DIR.
func TestNativeSessionRecords(t *testing.T) {
	if !IsAvailable() {
		t.Skip("libagora_recording not available")
	}
	appID := os.Getenv("AGORA_TEST_APP_ID")
	applite := os.Getenv("AGORA_TEST_APPLITE_DIR")
	if appID == "" || applite == "" {
		t.Skip("AGORA_TEST_APP_ID and AGORA_TEST_APPLITE_DIR not set")
	}

	cfg := NewConfig()
	require.NoError(t, cfg.SetRecordingPath(applite))
	cfg.RecordFileRootDir = t.TempDir()
	cfg.SetMixingEnabled(true)
	cfg.MixedVideoAudio = MixedAVCodecV2
	cfg.MixResolution = "640,480,15,500"
	cfg.IdleLimitSec = 10

	rec, err := NewRecorder()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	layout, err := BuildLayout(LayoutDefault, 640, 480, nil, 0)
	require.NoError(t, err)

	s := NewSession(rec)
	err = s.Run(ctx, JoinParams{
		AppID:   appID,
		Channel: "go-recording-test",
		Config:  cfg,
		Mix:     &MixSetting{Width: 640, Height: 480, VideoMix: true},
	}, layout)
	if err != nil {
		assert.ErrorIs(t, err, ErrEngineStopped)
	}
	assert.Equal(t, StateReleased, s.State())
}
