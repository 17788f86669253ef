package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/dontpanicw/ClinicMedia/config"
	"github.com/dontpanicw/ClinicMedia/internal/app"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("error creating config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	if cfg.PprofAddr != "" {
		go servePprof(cfg.PprofAddr)
	}

	if err := app.Start(cfg); err != nil {
		log.Fatalf("failed to start application: %v", err)
	}
	log.Infof("Server stopped")
}

// servePprof runs the profiler on its own mux so it never shares a port with
// the public API.
func servePprof(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	mux.Handle("/debug/pprof/block", pprof.Handler("block"))
	mux.Handle("/debug/pprof/mutex", pprof.Handler("mutex"))

	log.Infof("Starting pprof server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Warn("pprof server stopped")
	}
}
