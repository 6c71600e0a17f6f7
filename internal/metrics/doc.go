// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Cache poll outcomes, snapshot age and listing count
//   - Discovery rejections per filter layer
//   - Analysis outcomes and trade decisions
//   - Scan duration
//
// All collectors live on a private registry. Every method is safe on a nil
// *Metrics, so components can run without instrumentation.
package metrics
