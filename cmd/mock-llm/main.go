package main

import (
	"flag"
	"log/slog"
	"net/http"
	"time"

	"github.com/ccastromar/aos-research-team/internal/logx"
	mockllm "github.com/ccastromar/aos-research-team/internal/mocks/llm"
)

var listenAndServe = func(srv *http.Server) error { return srv.ListenAndServe() }

func buildMux() *http.ServeMux {
	mux := http.NewServeMux()
	mockllm.RegisterHandlers(mux)
	return mux
}

func main() {
	addr := flag.String("addr", ":9100", "address to listen on")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logx.Setup(*level, true)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           buildMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("mock llm listening", "component", "MockLLM", "addr", *addr, "base_url", "http://localhost"+*addr+"/v1")
	if err := listenAndServe(srv); err != nil {
		slog.Error("mock llm stopped", "component", "MockLLM", "error", err)
	}
}
