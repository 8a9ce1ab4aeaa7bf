package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestToFields(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		input    []any
		wantKeys []string
	}{
		{"empty input", nil, nil},
		{"string int bool", []any{"a", "x", "b", 123, "c", true}, []string{"a", "b", "c"}},
		{"time and duration", []any{"at", time.Unix(0, 0), "took", time.Second}, []string{"at", "took"}},
		{"bare error", []any{boom}, []string{"error"}},
		{"zap field passthrough", []any{zap.String("x", "y"), "n", 1}, []string{"x", "n"}},
		{"odd number of args", []any{"k1", "v1", "k2"}, []string{"k1", "arg#2"}},
		{"non-string key", []any{123, "value"}, []string{"invalid_key_1"}},
		{"nil value", []any{"a", nil}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)
			var keys []string
			for _, f := range fields {
				keys = append(keys, f.Key)
			}
			require.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestLogger_ErrorAddsErrorField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).WithName("ingest").WithValues("route", "a_to_b")

	l.Error(errors.New("timeout"), "Failed to fetch route")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "Failed to fetch route", entries[0].Message)
	require.Equal(t, "ingest", entries[0].LoggerName)
	ctx := entries[0].ContextMap()
	require.Equal(t, "a_to_b", ctx["route"])
	require.Equal(t, "timeout", ctx["error"])
}

func TestNew(t *testing.T) {
	l, err := New(&Options{Level: "debug", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = New(&Options{Level: "loud", Format: "json"})
	require.Error(t, err)
}

func TestOptionsValidate(t *testing.T) {
	require.Empty(t, NewOptions().Validate())
	require.Len(t, (&Options{Level: "trace", Format: "xml"}).Validate(), 2)
}
