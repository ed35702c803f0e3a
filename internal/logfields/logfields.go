package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyKey        = "key"
	KeyHookIndex  = "hook_index"
	KeyPattern    = "pattern"
	KeyPath       = "path"
	KeyCollection = "collection"
	KeyPlugin     = "plugin"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Key(k string) slog.Attr { return slog.String(KeyKey, k) }
func HookIndex(i int) slog.Attr { return slog.Int(KeyHookIndex, i) }
func Pattern(p string) slog.Attr { return slog.String(KeyPattern, p) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Collection(name string) slog.Attr { return slog.String(KeyCollection, name) }
func Plugin(name string) slog.Attr { return slog.String(KeyPlugin, name) }
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
