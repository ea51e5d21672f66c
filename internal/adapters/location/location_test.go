package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

func causeOf(t *testing.T, err error) domain.LocationCause {
	t.Helper()
	require.ErrorIs(t, err, domain.ErrLocationUnavailable)
	var locErr *domain.LocationError
	require.True(t, errors.As(err, &locErr))
	return locErr.Cause
}

func TestFixed(t *testing.T) {
	p := domain.GeoPoint{Lat: 40.18, Lon: 44.51}
	got, err := NewFixed(&p).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = NewFixed(nil).Current(context.Background())
	assert.Equal(t, domain.CausePositionUnavailable, causeOf(t, err))

	_, err = NewFixed(&domain.GeoPoint{Lat: 91, Lon: 0}).Current(context.Background())
	assert.Equal(t, domain.CausePositionUnavailable, causeOf(t, err))
}

func serve(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestIPLookup_Success(t *testing.T) {
	url := serve(t, http.StatusOK, `{"status":"success","lat":40.1811,"lon":44.5136}`)

	got, err := NewIPLookup(url, time.Second).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.GeoPoint{Lat: 40.1811, Lon: 44.5136}, got)
}

func TestIPLookup_Causes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   domain.LocationCause
	}{
		{"forbidden", http.StatusForbidden, `{}`, domain.CausePermissionDenied},
		{"unauthorized", http.StatusUnauthorized, `{}`, domain.CausePermissionDenied},
		{"server error", http.StatusInternalServerError, `{}`, domain.CausePositionUnavailable},
		{"lookup failed", http.StatusOK, `{"status":"fail","message":"private range"}`, domain.CausePositionUnavailable},
		{"missing coordinates", http.StatusOK, `{"status":"success"}`, domain.CausePositionUnavailable},
		{"malformed", http.StatusOK, `not json`, domain.CausePositionUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIPLookup(serve(t, tt.status, tt.body), time.Second).Current(context.Background())
			assert.Equal(t, tt.want, causeOf(t, err))
		})
	}
}

func TestIPLookup_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewIPLookup(srv.URL, 50*time.Millisecond).Current(context.Background())
	assert.Equal(t, domain.CauseTimeout, causeOf(t, err))
}
