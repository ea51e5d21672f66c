package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var yerevan = orb.Bound{Min: orb.Point{44.4, 40.1}, Max: orb.Point{44.7, 40.3}}

const threeElements = `{
  "version": 0.6,
  "elements": [
    {"type": "node", "id": 101, "lat": 40.1776, "lon": 44.5126,
     "tags": {"amenity": "drinking_water", "name": "Պուլպուլակ", "name:en": "Republic Square Pulpulak"}},
    {"type": "node", "id": 102, "lon": 44.5147,
     "tags": {"amenity": "drinking_water"}},
    {"type": "node", "id": 103, "lat": 40.1901, "lon": 44.5153,
     "tags": {"amenity": "drinking_water", "access": "yes", "fee": "no"}}
  ]
}`

func TestQuery(t *testing.T) {
	q := Query(yerevan)

	assert.True(t, strings.HasPrefix(q, "[out:json][timeout:25];"))
	for _, typ := range []string{"node", "way", "relation"} {
		assert.Contains(t, q, typ+`["amenity"="drinking_water"](40.1,44.4,40.3,44.7);`)
	}
	assert.True(t, strings.HasSuffix(q, "out geom;"))
}

func TestFetchFountains_FiltersMissingCoordinates(t *testing.T) {
	var gotQuery, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("data")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(threeElements))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, yerevan, 5*time.Second)
	fountains, err := c.FetchFountains(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, Query(yerevan), gotQuery)

	require.Len(t, fountains, 2)
	assert.Equal(t, "101", fountains[0].ID)
	assert.Equal(t, "103", fountains[1].ID)

	assert.Equal(t, "Republic Square Pulpulak", fountains[0].Name)
	assert.Equal(t, 40.1776, fountains[0].Location.Lat)
	assert.Equal(t, 44.5126, fountains[0].Location.Lon)

	assert.Equal(t, PlaceholderName, fountains[1].Name)
	assert.Equal(t, map[string]string{"amenity": "drinking_water", "access": "yes", "fee": "no"}, fountains[1].Tags)
}

func TestFetchFountains_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, yerevan, time.Second).FetchFountains(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFetchFountains_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>busy</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, yerevan, time.Second).FetchFountains(context.Background())
	assert.Error(t, err)
}

func TestFetchFountains_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewClient(srv.URL, yerevan, time.Second).FetchFountains(context.Background())
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	lat, lon, zero := 40.18, 44.51, 0.0

	elements := []element{
		{Type: osm.TypeNode, ID: 1, Lat: &lat, Lon: &lon},
		{Type: osm.TypeWay, ID: 2},
		{Type: osm.TypeNode, ID: 3, Lat: &zero, Lon: &zero, Tags: osm.Tags{{Key: "name", Value: "Null Island"}}},
		{Type: osm.TypeNode, ID: 1, Lat: &zero, Lon: &lon},
	}

	got := Normalize(elements)
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, lat, got[0].Location.Lat, "first occurrence of a repeated id wins")
	assert.NotNil(t, got[0].Tags)
	assert.Empty(t, got[0].Tags)

	assert.Equal(t, "3", got[1].ID)
	assert.Equal(t, "Null Island", got[1].Name)
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want string
	}{
		{"english preferred", osm.Tags{{Key: "name", Value: "Ջուր"}, {Key: "name:en", Value: "Water"}}, "Water"},
		{"generic name", osm.Tags{{Key: "name", Value: "Ջուր"}}, "Ջուր"},
		{"placeholder", osm.Tags{{Key: "amenity", Value: "drinking_water"}}, PlaceholderName},
		{"no tags", nil, PlaceholderName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.tags))
		})
	}
}
