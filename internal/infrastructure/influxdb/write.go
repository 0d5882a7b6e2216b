package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementHTTPRequest = "http_request"
	MeasurementAuthEvent   = "auth_event"
)

// RequestPoint builds an http_request point. Route is the chi route
// pattern, not the raw path, so tag cardinality stays bounded.
func RequestPoint(method, route string, status int, duration time.Duration, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementHTTPRequest,
		map[string]string{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		},
		map[string]interface{}{
			"duration_ms": float64(duration.Microseconds()) / 1000,
			"count":       1,
		},
		at,
	)
}

// AuthEventPoint builds an auth_event point, e.g. ("login", "failure").
func AuthEventPoint(event, outcome string, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementAuthEvent,
		map[string]string{
			"event":   event,
			"outcome": outcome,
		},
		map[string]interface{}{
			"count": 1,
		},
		at,
	)
}

// WriteRequest records one served HTTP request.
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteRequest(method, route string, status int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(RequestPoint(method, route, status, duration, time.Now()))
}

// WriteAuthEvent records a register, login, refresh or logout outcome.
func (c *Client) WriteAuthEvent(event, outcome string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(AuthEventPoint(event, outcome, time.Now()))
}
