//go:build linux && !cgo

// Library search helpers for the purego binding.

package recording

import (
	"os"
	"path/filepath"
	"runtime"
)

// findModuleRoot walks up from the working directory to the directory holding go.mod.
func findModuleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return walkUpToGoMod(wd)
}

// findSourceRoot resolves the module root from this file's location.
func findSourceRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return walkUpToGoMod(filepath.Dir(file))
}

func walkUpToGoMod(dir string) string {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
