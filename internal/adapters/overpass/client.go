package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/pkg/telemetry"
)

// DefaultURL is the public Overpass interpreter endpoint.
const DefaultURL = "https://overpass-api.de/api/interpreter"

// PlaceholderName is used when an element carries neither name:en nor name.
const PlaceholderName = "Drinking Water"

// serverTimeout is the [timeout:N] hint sent with every query, in seconds.
const serverTimeout = 25

// Client implements ports.FountainProvider against an Overpass API endpoint.
type Client struct {
	url    string
	bound  orb.Bound
	client *http.Client
}

// NewClient creates a client querying drinking-water amenities inside bound.
// A zero timeout leaves the request bounded only by the caller's context.
func NewClient(endpoint string, bound orb.Bound, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	return &Client{
		url:    endpoint,
		bound:  bound,
		client: &http.Client{Timeout: timeout},
	}
}

// element is one entry of the Overpass JSON "elements" array. Ways and
// relations queried with "out geom" carry no top-level lat/lon.
type element struct {
	Type osm.Type `json:"type"`
	ID   int64    `json:"id"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
	Tags osm.Tags `json:"tags"`
}

type response struct {
	Elements []element `json:"elements"`
}

// Query returns the Overpass QL text sent for b.
func Query(b orb.Bound) string {
	box := fmt.Sprintf("(%s,%s,%s,%s)",
		formatCoord(b.Min.Lat()), formatCoord(b.Min.Lon()),
		formatCoord(b.Max.Lat()), formatCoord(b.Max.Lon()))

	var q strings.Builder
	fmt.Fprintf(&q, "[out:json][timeout:%d];\n(\n", serverTimeout)
	for _, t := range []osm.Type{osm.TypeNode, osm.TypeWay, osm.TypeRelation} {
		fmt.Fprintf(&q, "  %s[\"amenity\"=\"drinking_water\"]%s;\n", t, box)
	}
	q.WriteString(");\nout geom;")
	return q.String()
}

// FetchFountains posts the query and normalizes the result.
func (c *Client) FetchFountains(ctx context.Context) ([]domain.Fountain, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanOverpassQuery)
	defer span.End()

	form := url.Values{"data": {Query(c.bound)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		span.SetStatus(codes.Error, resp.Status)
		return nil, fmt.Errorf("overpass: HTTP %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	fountains := Normalize(body.Elements)
	span.SetAttributes(
		attribute.Int("overpass.elements", len(body.Elements)),
		attribute.Int("overpass.fountains", len(fountains)),
	)
	return fountains, nil
}

// Normalize maps provider elements to fountains, preserving response order.
// Elements missing lat or lon are dropped; repeated ids keep the first entry.
func Normalize(elements []element) []domain.Fountain {
	fountains := make([]domain.Fountain, 0, len(elements))
	seen := make(map[string]struct{}, len(elements))

	for _, el := range elements {
		if el.Lat == nil || el.Lon == nil {
			continue
		}
		id := strconv.FormatInt(el.ID, 10)
		if _, dup := seen[id]; dup {
			slog.Debug("overpass: duplicate element skipped", "id", id, "type", el.Type)
			continue
		}
		seen[id] = struct{}{}

		tags := el.Tags.Map()
		if tags == nil {
			tags = map[string]string{}
		}
		fountains = append(fountains, domain.Fountain{
			ID:       id,
			Location: domain.GeoPoint{Lat: *el.Lat, Lon: *el.Lon},
			Name:     DisplayName(el.Tags),
			Tags:     tags,
		})
	}
	return fountains
}

// DisplayName prefers the English name, then the generic one, then PlaceholderName.
func DisplayName(tags osm.Tags) string {
	if n := tags.Find("name:en"); n != "" {
		return n
	}
	if n := tags.Find("name"); n != "" {
		return n
	}
	return PlaceholderName
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
