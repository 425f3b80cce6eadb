// Package profiling provides CPU and heap profiling for scan runs.
package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
)

// StartCPU begins CPU profiling into path. The returned stop function
// flushes and closes the profile and must be called before exit.
func StartCPU(path string) (stop func(), err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, mmqerrors.IOError(fmt.Sprintf("create cpu profile %s failed", path), err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, mmqerrors.InternalError("start cpu profile failed", err)
	}
	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

// WriteHeap writes a point-in-time heap profile to path. A garbage
// collection runs first so the snapshot reflects live objects.
func WriteHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return mmqerrors.IOError(fmt.Sprintf("create heap profile %s failed", path), err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return mmqerrors.InternalError("write heap profile failed", err)
	}
	return nil
}
