package urlcheck

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestValidator_Check(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		restricted bool
		wantErr    bool
	}{
		{name: "empty", url: "", wantErr: true},
		{name: "not a url", url: "not url", wantErr: true},
		{name: "ftp scheme", url: "ftp://example.com", wantErr: true},
		{name: "javascript scheme", url: "javascript:alert(1)", wantErr: true},
		{name: "missing host", url: "http://", wantErr: true},
		{name: "https with path", url: "https://example.com/path"},
		{name: "http with query", url: "http://example.com/a?b=c"},
		{name: "localhost unrestricted", url: "http://localhost:3000"},
		{name: "private ip unrestricted", url: "http://192.168.1.1/admin"},
		{name: "https restricted", url: "https://example.com/path", restricted: true},
		{name: "localhost restricted", url: "http://localhost:3000", restricted: true, wantErr: true},
		{name: "uppercase localhost restricted", url: "http://LOCALHOST/", restricted: true, wantErr: true},
		{name: "loopback restricted", url: "http://127.0.0.1/", restricted: true, wantErr: true},
		{name: "10 range restricted", url: "http://10.0.0.8/", restricted: true, wantErr: true},
		{name: "192.168 range restricted", url: "https://192.168.0.1/", restricted: true, wantErr: true},
		{name: "172.16 range restricted", url: "http://172.16.5.4/", restricted: true, wantErr: true},
		{name: "172.17 not matched by prefix", url: "http://172.17.0.1/", restricted: true},
		{name: "public ip restricted", url: "http://93.184.216.34/", restricted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(tt.restricted, discardLogger())

			err := v.Check(tt.url)

			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, entity.ErrInvalidURL)
				assert.False(t, v.Valid(tt.url))
				return
			}

			assert.NoError(t, err)
			assert.True(t, v.Valid(tt.url))
		})
	}
}
