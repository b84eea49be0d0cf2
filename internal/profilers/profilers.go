// Package profilers installs the profiling flags of the minesweeper programs, mostly used to
// investigate reveals on huge boards.
//
//   - -pprof_addr=<host:port>: serves net/http/pprof while the program runs.
//   - -pprof_wait: with -pprof_addr, waits for an interrupt at exit so the profiles can still be read.
//   - -cpu_profile=<file>: CPU profile of the whole run.
//   - -mem_profile=<file>: heap profile written at exit.
package profilers

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagPprofAddr  = flag.String("pprof_addr", "", "If set, serves net/http/pprof at this address, e.g. localhost:6060.")
	flagPprofWait  = flag.Bool("pprof_wait", false, "With -pprof_addr, wait for an interrupt (Ctrl+C) at exit.")
	flagCPUProfile = flag.String("cpu_profile", "", "write cpu profile to `file`")
	flagMemProfile = flag.String("mem_profile", "", "write heap profile to `file` at exit")
)

// active holds what Setup started, for OnQuit to stop.
var active struct {
	ctx     context.Context
	cpuFile *os.File
	server  *http.Server
}

// Setup starts the profilers configured by the flags. It must be followed by a deferred
// call to OnQuit.
//
// ctx is only used by -pprof_wait: its cancellation (usually by Ctrl+C) ends the wait.
func Setup(ctx context.Context) {
	active.ctx = ctx
	if *flagPprofAddr != "" {
		active.server = servePprof(*flagPprofAddr)
	}
	if *flagCPUProfile != "" {
		f, err := StartCPUProfile(*flagCPUProfile)
		if err != nil {
			klog.Exitf("%+v", err)
		}
		active.cpuFile = f
	}
}

// OnQuit flushes the profiles and stops the pprof server.
func OnQuit() {
	if active.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := active.cpuFile.Close(); err != nil {
			klog.Errorf("closing CPU profile %q: %v", active.cpuFile.Name(), err)
		}
		active.cpuFile = nil
	}
	if *flagMemProfile != "" {
		if err := WriteHeapProfile(*flagMemProfile); err != nil {
			klog.Errorf("%+v", err)
		}
	}
	if active.server != nil {
		if *flagPprofWait && active.ctx != nil && active.ctx.Err() == nil {
			klog.Infof("Done: pprof still served at http://%s/debug/pprof, interrupt to exit", active.server.Addr)
			<-active.ctx.Done()
		}
		_ = active.server.Close()
		active.server = nil
	}
}

// StartCPUProfile creates the file at path and starts the CPU profile into it.
// The caller stops it with pprof.StopCPUProfile, and then closes the file.
func StartCPUProfile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create CPU profile %q", path)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "could not start CPU profile %q", path)
	}
	return f, nil
}

// WriteHeapProfile garbage collects and writes the heap profile to path.
func WriteHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create heap profile %q", path)
	}
	defer func() { _ = f.Close() }()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return errors.Wrapf(err, "could not write heap profile %q", path)
	}
	klog.V(1).Infof("Heap profile written to %q", path)
	return nil
}

// servePprof serves the handlers net/http/pprof registers in the default mux.
func servePprof(addr string) *http.Server {
	server := &http.Server{Addr: addr, Handler: http.DefaultServeMux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Errorf("pprof server on %s: %v", addr, err)
		}
	}()
	klog.Infof("Serving pprof at http://%s/debug/pprof", addr)
	return server
}
