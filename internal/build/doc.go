// Package build runs one kapi build.
//
// A run installs the plugin catalogue into a fresh hook registry, freezes it,
// and executes the stages prepare, collect, hooks, load, transform and write
// in order. The first failing stage stops the run. Every run carries a UUID
// run ID that appears in its log lines and history events.
package build
