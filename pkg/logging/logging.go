// Package logging configures the process-wide slog logger: JSON output in
// production, text output in development (MCP_ENV), with every record's
// attribute values passed through the masking service first so credentials
// never reach a log sink (SPEC_FULL §7 ambient stack, extending
// pkg/masking/service.go from an on-demand masker to a slog.Handler
// middleware).
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/codeready-toolchain/qe-agentflow/pkg/masking"
)

// Environment selects the base handler's output format.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// EnvironmentFromEnv reads MCP_ENV, defaulting to development when unset or
// unrecognized.
func EnvironmentFromEnv() Environment {
	switch Environment(os.Getenv("MCP_ENV")) {
	case EnvProduction:
		return EnvProduction
	case EnvTesting:
		return EnvTesting
	default:
		return EnvDevelopment
	}
}

// Configure builds and installs the process-wide slog default logger.
// masker may be nil, in which case records pass through unmasked — callers
// without MCP server configuration (e.g. `qegen history` subcommands) are
// not at risk of logging tool payloads anyway.
func Configure(env Environment, masker *masking.MaskingService) {
	var base slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == EnvProduction {
		base = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		base = slog.NewTextHandler(os.Stderr, opts)
	}

	handler := base
	if masker != nil {
		handler = &maskingHandler{next: base, masker: masker}
	}
	slog.SetDefault(slog.New(handler))
}

// maskingHandler wraps another slog.Handler, masking every string
// attribute value through the alert-masking pattern group before
// delegating. Alert masking is fail-open (returns original text on
// masking error), matching pkg/masking's stated policy for non-tool-result
// content.
type maskingHandler struct {
	next   slog.Handler
	masker *masking.MaskingService
}

func (h *maskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskingHandler) Handle(ctx context.Context, record slog.Record) error {
	record.Message = h.masker.MaskAlertData(record.Message)

	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})
	return h.next.Handle(ctx, masked)
}

func (h *maskingHandler) maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, h.masker.MaskAlertData(a.Value.String()))
	}
	return a
}

func (h *maskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &maskingHandler{next: h.next.WithAttrs(attrs), masker: h.masker}
}

func (h *maskingHandler) WithGroup(name string) slog.Handler {
	return &maskingHandler{next: h.next.WithGroup(name), masker: h.masker}
}
