// Package hooks holds the registration state plugins contribute before a build:
// settings hooks keyed by configuration key, folders to collect, and file
// rules keyed by glob pattern.
//
// A Registry is a plain value. Plugins receive it at install time, the build
// freezes it, and the chain runner and file transformer read from it.
package hooks
