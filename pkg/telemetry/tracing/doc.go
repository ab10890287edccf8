// Package tracing provides OpenTelemetry tracing for cleaning runs.
//
// A run is one trace. The clean command opens the root span, loading the
// import maps and listing storage are child spans, and every deletion of a
// live run gets its own span carrying the package and the decision that
// caused it:
//
//	clean
//	├── import_maps.load
//	├── storage.list
//	├── package.delete  a-app@1.0.0
//	└── package.delete  a-app@1.1.0-rc.1
//
// Spans are exported in batches over OTLP/gRPC. When tracing is disabled
// New returns a noop tracer, so callers never check for nil.
//
// # Sampling
//
// Three strategies are supported: always, never and ratio. Each is wrapped
// in a parent-based sampler, so a run started under a sampled parent trace
// is always recorded.
//
// # Propagation
//
// Transport injects the W3C traceparent header into outgoing requests, so
// import-map deployer calls join the run's trace.
package tracing
