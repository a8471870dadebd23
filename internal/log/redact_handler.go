package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// identifierKeys contains attribute keys that should always be masked.
// These keys carry values that uniquely identify the host machine.
var identifierKeys = map[string]bool{
	// Hardware identifiers
	"serial":        true,
	"serial_number": true,
	"serialnumber":  true,
	"uuid":          true,
	"hardware_uuid": true,
	"machine_id":    true,
	"machineid":     true,

	// Network identifiers
	"hwaddr": true,
	"mac":    true,
}

// macAddressPattern matches colon- or dash-separated MAC addresses
// anywhere inside a value, including inside evidence sentences.
var macAddressPattern = regexp.MustCompile(`\b([0-9A-Fa-f]{2}([:-]))(?:[0-9A-Fa-f]{2}[:-]){4}[0-9A-Fa-f]{2}\b`)

// ouiPattern captures the vendor prefix of a matched MAC address.
var ouiPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2})([:-])([0-9A-Fa-f]{2})[:-]([0-9A-Fa-f]{2})`)

// MaskValue is the string used to replace fully masked values.
const MaskValue = "***REDACTED***"

// RedactHandler wraps an slog.Handler to mask host-identifying values.
// It intercepts log records and rewrites attribute values before passing
// them to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Loggers derived via With() inherit the masking automatically
type RedactHandler struct {
	// handler is the underlying slog handler that receives masked records.
	handler slog.Handler
}

// NewRedactHandler creates a new RedactHandler wrapping the given
// handler. If handler is nil, the returned RedactHandler uses
// slog.Default().Handler().
func NewRedactHandler(handler slog.Handler) *RedactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it to the underlying
// handler. The message itself is also scrubbed for MAC addresses, since
// evidence strings sometimes travel as messages.
func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, MaskMACTails(r.Message), r.PC)

	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})

	return h.handler.Handle(ctx, masked)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are masked before being added.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		maskedAttrs[i] = h.maskAttr(a)
	}
	return &RedactHandler{handler: h.handler.WithAttrs(maskedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name)}
}

// maskAttr masks a single attribute, recursively handling groups.
func (h *RedactHandler) maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		maskedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			maskedAttrs[i] = h.maskAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(maskedAttrs...)}
	}

	if identifierKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, MaskMACTails(a.Value.String()))
	}
	return a
}

// MaskMACTails rewrites every MAC address in the string, keeping the
// three-octet vendor prefix and masking the NIC-specific tail. The
// prefix is what a detection needs to stay debuggable ("is this the
// VirtualBox OUI?"); the tail only identifies the machine.
func MaskMACTails(s string) string {
	return macAddressPattern.ReplaceAllStringFunc(s, func(mac string) string {
		m := ouiPattern.FindStringSubmatch(mac)
		if m == nil {
			return MaskValue
		}
		sep := m[2]
		prefix := m[1] + sep + m[3] + sep + m[4]
		return prefix + sep + "xx" + sep + "xx" + sep + "xx"
	})
}

// NewLogger creates a new slog.Logger with identifier masking.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or
// passed to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewRedactHandler(textHandler))
}

// NewJSONLogger creates a new slog.Logger with identifier masking that
// outputs JSON format. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewRedactHandler(jsonHandler))
}
