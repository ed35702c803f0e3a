// Package metrics provides the observability hooks for kapi builds.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so metrics collection never needs nil checks at call sites:
//
//	runner := chain.New(options, registry, dest, chain.WithRecorder(rec))
//
// PrometheusRecorder is the real implementation. A one-shot CLI build has no
// scrape endpoint, so the recorder's registry is exported with WriteTextfile
// in the node_exporter textfile format instead.
package metrics
