// Package recording is a Go binding for the Agora on-premise recording SDK
// (libagora_recording).
//
// Key pieces include:
//   - Config: recording settings, mixing and the SDK's applite directory
//   - Layout and BuildLayout: video mixing regions and preset arrangements
//   - Recorder: one native engine and its channel calls
//   - Session: join/leave/release ordering on top of a Recorder
//
// # Architecture
//
//	Config + Layout -> Recorder -> nativeSDK -> libagora_recording
//	Session -> Recorder (join -> mix/layout -> leave -> release)
//
// Strings handed to the engine for one call are NUL-terminated copies pinned
// in Go memory. The join arguments and config lent at channel creation are
// copied to the C heap and freed by Release; a Recorder dropped without
// Release leaks them with its engine.
//
// # Native Libraries
//
// The binding loads libagora_recording.so, a C wrapper around the SDK's
// AgoraSdk class built from clib/ into build/:
//
//	make -C clib AGORA_SDK_DIR=/opt/agora/Agora_Recording_SDK_for_Linux_FULL
//
// Set AGORA_RECORDING_LIB_PATH to the library file or
// AGORA_SDK_LIB_PATH to the directory containing it. By default the package
// uses purego (CGO_ENABLED=0). With CGO enabled it links against the same
// wrapper. IsAvailable reports whether the library could be loaded.
//
// # Build Tags
//
// The SDK ships for linux only. On other platforms every Recorder constructor
// returns ErrUnsupportedPlatform.
package recording
