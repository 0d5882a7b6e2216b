// Package influxdb writes Inkwell request and authentication telemetry to
// InfluxDB.
//
// Two measurements are recorded:
//   - http_request: one point per served request, tagged by method, route
//     pattern and status, with duration_ms
//   - auth_event: register, login, refresh and logout outcomes
//
// Telemetry is optional. When disabled, Connect returns ErrDisabled and the
// API runs without it; writes on a nil-connected client are dropped.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteRequest("GET", "/api/v1/blogs", 200, 12*time.Millisecond)
//	client.WriteAuthEvent("login", "failure")
package influxdb
