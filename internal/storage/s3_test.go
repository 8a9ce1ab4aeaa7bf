package storage

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
)

func TestNewS3Service_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing endpoint", Options{AccessKey: "a", SecretKey: "s"}},
		{"missing access key", Options{Endpoint: "localhost:9000", SecretKey: "s"}},
		{"missing secret key", Options{Endpoint: "localhost:9000", AccessKey: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3Service(tt.opts)
			require.Error(t, err)
		})
	}
}

func TestNewS3Service(t *testing.T) {
	s, err := NewS3Service(Options{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Region: "eu-north-1"})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestDecodeJSON_KeepsNumbers(t *testing.T) {
	doc, err := DecodeJSON([]byte(`{"lengthInMeters": 167000, "lat": 30.31652, "nested": {"n": 1e3}}`))
	require.NoError(t, err)

	require.Equal(t, json.Number("167000"), doc["lengthInMeters"])
	require.Equal(t, json.Number("30.31652"), doc["lat"])

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	require.JSONEq(t, `{"lengthInMeters": 167000, "lat": 30.31652, "nested": {"n": 1e3}}`, string(out))
}

func TestDecodeJSON_RejectsNonObjects(t *testing.T) {
	for _, body := range []string{``, `[1,2]`, `{"a":`, `"text"`} {
		_, err := DecodeJSON([]byte(body))
		require.Error(t, err, body)
	}
}

func TestIsNotFound(t *testing.T) {
	require.True(t, IsNotFound(fmt.Errorf("wrapped: %w", minio.ErrorResponse{Code: "NoSuchKey"})))
	require.True(t, IsNotFound(minio.ErrorResponse{Code: "NoSuchBucket"}))
	require.False(t, IsNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	require.False(t, IsNotFound(fmt.Errorf("plain")))
	require.False(t, IsNotFound(nil))
}
