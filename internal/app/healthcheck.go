package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// healthStatus is the body of the /health response.
type healthStatus struct {
	Status     string  `json:"status"`
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes,omitempty"`
	CPUPercent float64 `json:"cpu_percent,omitempty"`
	Threads    int32   `json:"threads,omitempty"`
}

// processStats fills in what gopsutil can tell about the running process.
// Missing stats are left empty.
func processStats(ctx context.Context) healthStatus {
	status := healthStatus{Status: "OK", PID: int32(os.Getpid())}
	p, err := process.NewProcessWithContext(ctx, status.PID)
	if err != nil {
		return status
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil {
		status.RSSBytes = mem.RSS
	}
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		status.CPUPercent = cpu
	}
	if n, err := p.NumThreadsWithContext(ctx); err == nil {
		status.Threads = n
	}
	return status
}

// healthHandler reports that the process is alive, with its resource usage.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(processStats(r.Context())); err != nil {
		a.logger.Warn("Writing health check response failed", "error", err)
	}
}

// startHealthcheckServer runs the health check HTTP server in the background
// when a port is configured.
func (a *App) startHealthcheckServer(ctx context.Context) {
	a.logger.Debug("Configuring health check server.")
	if a.cfg.HealthcheckPort <= 0 {
		a.logger.Debug("Health check server not started: disabled")
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)

	addr := fmt.Sprintf(":%d", a.cfg.HealthcheckPort)
	a.httpServer = &http.Server{
		Addr:        addr,
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	srv := a.httpServer
	go func() {
		a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeHealthcheckServer(ctx context.Context) error {
	if a.httpServer == nil {
		a.logger.Debug("Health check server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down health check server...")
	err := a.httpServer.Shutdown(ctx)
	a.httpServer = nil
	return err
}
