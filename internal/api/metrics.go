package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the admin view of server internals.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	RateLimit     RateLimitStats  `json:"rate_limit"`
	Pipeline      PipelineMetrics `json:"pipeline"`
	Database      DatabaseMetrics `json:"database"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
	PendingTickets   int `json:"pending_tickets"`
}

// RateLimitStats describes the active limiter.
type RateLimitStats struct {
	Backend     string `json:"backend"`
	TrackedKeys int    `json:"tracked_keys"`
}

// PipelineMetrics counts side effects that were dropped under load.
type PipelineMetrics struct {
	AuditDropped  uint64 `json:"audit_dropped"`
	EventsDropped uint64 `json:"events_dropped"`
	BusConnected  bool   `json:"bus_connected"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// connectionReporter is implemented by *mqtt.Client.
type connectionReporter interface {
	IsConnected() bool
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s.eventMu.Lock()
	eventsDropped := s.droppedEvents
	s.eventMu.Unlock()

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
			PendingTickets:   s.tickets.len(),
		},
		RateLimit: RateLimitStats{Backend: s.limiterKind},
		Pipeline: PipelineMetrics{
			AuditDropped:  s.recorder.Dropped(),
			EventsDropped: eventsDropped,
		},
	}

	if s.memLimiter != nil {
		metrics.RateLimit.TrackedKeys = s.memLimiter.Len()
	}
	if bus, ok := s.events.(connectionReporter); ok {
		metrics.Pipeline.BusConnected = bus.IsConnected()
	}
	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeSuccess(w, http.StatusOK, "", metrics)
}
