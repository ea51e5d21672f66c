package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/pkg/telemetry"
)

// DefaultIPLookupURL answers with the caller's approximate position.
const DefaultIPLookupURL = "http://ip-api.com/json/?fields=status,message,lat,lon"

// IPLookup approximates the position from the public IP address.
type IPLookup struct {
	url    string
	client *http.Client
}

// NewIPLookup creates a lookup provider. timeout bounds each request.
func NewIPLookup(url string, timeout time.Duration) *IPLookup {
	if url == "" {
		url = DefaultIPLookupURL
	}
	return &IPLookup{url: url, client: &http.Client{Timeout: timeout}}
}

type lookupResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// Current queries the lookup service. Failures are *domain.LocationError.
func (l *IPLookup) Current(ctx context.Context) (domain.GeoPoint, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanLocationLookup)
	defer span.End()

	p, err := l.lookup(ctx)
	if err != nil {
		var locErr *domain.LocationError
		if errors.As(err, &locErr) {
			span.SetAttributes(attribute.String("location.cause", string(locErr.Cause)))
		}
		span.SetStatus(codes.Error, err.Error())
		return domain.GeoPoint{}, err
	}
	return p, nil
}

func (l *IPLookup) lookup(ctx context.Context) (domain.GeoPoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return domain.GeoPoint{}, unavailable(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return domain.GeoPoint{}, &domain.LocationError{Cause: domain.CauseTimeout, Err: err}
		}
		return domain.GeoPoint{}, unavailable(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.GeoPoint{}, &domain.LocationError{
			Cause: domain.CausePermissionDenied,
			Err:   fmt.Errorf("lookup: HTTP %d", resp.StatusCode),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return domain.GeoPoint{}, unavailable(fmt.Errorf("lookup: HTTP %d", resp.StatusCode))
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if isTimeout(err) {
			return domain.GeoPoint{}, &domain.LocationError{Cause: domain.CauseTimeout, Err: err}
		}
		return domain.GeoPoint{}, unavailable(fmt.Errorf("decode lookup response: %w", err))
	}
	if body.Status != "" && body.Status != "success" {
		return domain.GeoPoint{}, unavailable(fmt.Errorf("lookup failed: %s", body.Message))
	}
	if body.Lat == nil || body.Lon == nil {
		return domain.GeoPoint{}, unavailable(errors.New("lookup response without coordinates"))
	}

	p := domain.GeoPoint{Lat: *body.Lat, Lon: *body.Lon}
	if !p.Valid() {
		return domain.GeoPoint{}, unavailable(fmt.Errorf("coordinates out of range: %v,%v", p.Lat, p.Lon))
	}
	return p, nil
}

func unavailable(err error) error {
	return &domain.LocationError{Cause: domain.CausePositionUnavailable, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
