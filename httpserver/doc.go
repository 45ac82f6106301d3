/*
Package httpserver implements the HTTP surface of the scan append
service.

Scanners post scan records here; the service records each unique
(code, trayUid) pair exactly once and serves the accumulated log plus a
material store index back out. Dedupe is deliberately server-side so the
embedded scanner stays fire-and-forget.

# Append API

  - POST /api/v1/scans - record a scan {code, trayUid, chipUid?};
    responds {"status":"recorded"} or {"status":"duplicate"}
  - GET /api/v1/scans - list recorded scans
  - POST /api/v1/materials - replace the served store index with a JSON
    array of {code, name, color, variantId, materialId} records
  - GET /api/v1/materials - serve the store index

# Diagnostics

  - GET /livez, /readyz - health probes
  - GET /drain, /undrain - readiness toggling for load balancers
  - /debug - pprof, when enabled

Prometheus metrics are served on a separate listener.
*/
package httpserver
