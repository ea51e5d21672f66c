package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/pkg/telemetry"
)

// DefaultURL is the public OSRM demo server.
const DefaultURL = "https://router.project-osrm.org"

// Client implements ports.RouteProvider against an OSRM HTTP server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an OSRM client. The per-request deadline comes from the
// caller's context; timeout is an upper bound for the transport.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type routeResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message,omitempty"`
	Routes  []route `json:"routes"`
}

type route struct {
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
	Geometry *geojson.Geometry `json:"geometry"`
}

// RouteURL builds the foot-profile request for start and end.
func (c *Client) RouteURL(start, end domain.GeoPoint) string {
	return fmt.Sprintf("%s/route/v1/foot/%s;%s?geometries=geojson&overview=full&steps=false",
		c.baseURL, coord(start), coord(end))
}

// WalkingRoute returns the first route candidate. A response without
// candidates yields domain.ErrNoRoute.
func (c *Client) WalkingRoute(ctx context.Context, start, end domain.GeoPoint) (*domain.Route, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanOSRMRoute)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RouteURL(start, end), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		// OSRM answers unroutable pairs with 400 and code NoRoute.
		var failure routeResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&failure); err == nil && failure.Code == "NoRoute" {
			return nil, domain.ErrNoRoute
		}
		return nil, fmt.Errorf("osrm: HTTP %d", resp.StatusCode)
	}

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("decode osrm response: %w", err)
	}
	if len(body.Routes) == 0 {
		return nil, domain.ErrNoRoute
	}

	first := body.Routes[0]
	path, err := toPath(first.Geometry)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("osrm.path_points", len(path)))

	return &domain.Route{
		Path:            path,
		DistanceMeters:  first.Distance,
		DurationSeconds: first.Duration,
		Source:          domain.RouteSourceProvider,
	}, nil
}

// toPath converts a GeoJSON LineString ([lon, lat] pairs) to lat-first points.
func toPath(g *geojson.Geometry) ([]domain.RoutePoint, error) {
	if g == nil || g.Coordinates == nil {
		return nil, fmt.Errorf("osrm: route without geometry")
	}
	ls, ok := g.Coordinates.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("osrm: unexpected geometry %s", g.Type)
	}
	path := make([]domain.RoutePoint, len(ls))
	for i, p := range ls {
		path[i] = domain.RoutePoint{Lat: p.Lat(), Lon: p.Lon()}
	}
	return path, nil
}

func coord(p domain.GeoPoint) string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}
