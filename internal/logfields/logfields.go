package logfields

import "log/slog"

// Canonical log field names shared across packages.
const (
	KeyVersion    = "version"
	KeySection    = "section"
	KeyTopic      = "topic"
	KeySubTopic   = "sub_topic"
	KeyURL        = "url"
	KeyKind       = "kind"
	KeySessionID  = "session_id"
	KeyPath       = "path"
	KeyRoutes     = "routes"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func Version(v string) slog.Attr { return slog.String(KeyVersion, v) }
func Section(s string) slog.Attr { return slog.String(KeySection, s) }
func Topic(t string) slog.Attr { return slog.String(KeyTopic, t) }
func SubTopic(t string) slog.Attr { return slog.String(KeySubTopic, t) }
func URL(u string) slog.Attr { return slog.String(KeyURL, u) }
func Kind(k string) slog.Attr { return slog.String(KeyKind, k) }
func SessionID(id string) slog.Attr { return slog.String(KeySessionID, id) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Routes(n int) slog.Attr { return slog.Int(KeyRoutes, n) }
func DurationMS(ms int64) slog.Attr { return slog.Int64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
