package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

const overpassBody = `{"elements":[
	{"type":"node","id":1001,"lat":40.1781,"lon":44.5129,"tags":{"amenity":"drinking_water","name":"Republic Square"}},
	{"type":"node","id":1002,"lat":40.2000,"lon":44.5000,"tags":{"amenity":"drinking_water"}},
	{"type":"way","id":2001,"tags":{"amenity":"drinking_water"}}
]}`

const osrmBody = `{"code":"Ok","routes":[{"distance":120.4,"duration":95.1,
	"geometry":{"type":"LineString","coordinates":[[44.5128,40.1780],[44.51285,40.17805],[44.5129,40.1781]]}}]}`

type fakes struct {
	overpassDown atomic.Bool
	osrmDown     atomic.Bool
}

// setup points the CLI config at fake Overpass and OSRM servers and a
// temporary snapshot file.
func setup(t *testing.T) *fakes {
	t.Helper()
	f := &fakes{}

	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.overpassDown.Load() {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(overpassBody))
	}))
	t.Cleanup(overpass.Close)

	osrm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.osrmDown.Load() {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(osrmBody))
	}))
	t.Cleanup(osrm.Close)

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PULPULUCK_OVERPASS_URL", overpass.URL)
	t.Setenv("PULPULUCK_OSRM_URL", osrm.URL)
	t.Setenv("PULPULUCK_SNAPSHOT_FILE", filepath.Join(dir, "snapshot.json"))
	return f
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(context.Background())
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestFountainsCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "fountains")
	require.NoError(t, err)
	assert.Contains(t, out, "2 fountains")
	assert.Contains(t, out, "Republic Square")
	assert.Contains(t, out, "Drinking Water")
	assert.NotContains(t, out, "2001")
}

func TestFountainsCommand_JSON(t *testing.T) {
	setup(t)

	out, err := run(t, "fountains", "--json")
	require.NoError(t, err)

	var fountains []domain.Fountain
	require.NoError(t, json.Unmarshal([]byte(out), &fountains))
	require.Len(t, fountains, 2)
	assert.Equal(t, "1001", fountains[0].ID)
	assert.Equal(t, "drinking_water", fountains[0].Tags["amenity"])
}

func TestFountainsCommand_SnapshotFallback(t *testing.T) {
	f := setup(t)

	_, err := run(t, "fountains")
	require.NoError(t, err)

	f.overpassDown.Store(true)
	out, err := run(t, "fountains")
	require.NoError(t, err)
	assert.Contains(t, out, "2 fountains")
}

func TestFountainsCommand_DataUnavailable(t *testing.T) {
	f := setup(t)
	f.overpassDown.Store(true)

	_, err := run(t, "fountains")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestNearestCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "nearest", "--lat", "40.1780", "--lon", "44.5128")
	require.NoError(t, err)
	assert.Contains(t, out, "1001")
	assert.Contains(t, out, "Republic Square")
}

func TestNearestCommand_InvalidCoordinates(t *testing.T) {
	setup(t)

	_, err := run(t, "nearest", "--lat", "91", "--lon", "44.5128")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestNearestCommand_MissingFlags(t *testing.T) {
	setup(t)

	_, err := run(t, "nearest", "--lat", "40.1780")
	assert.Error(t, err)
}

func TestNearbyCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "nearby", "--lat", "40.1780", "--lon", "44.5128", "--radius", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "1 fountains within 100m")
	assert.Contains(t, out, "1001")
	assert.NotContains(t, out, "1002")

	out, err = run(t, "nearby", "--lat", "40.1780", "--lon", "44.5128", "--radius", "5000", "--json")
	require.NoError(t, err)
	var results []domain.NearestResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "1001", results[0].Fountain.ID)
	assert.Less(t, results[0].DistanceMeters, results[1].DistanceMeters)
}

func TestNearbyCommand_BadRadius(t *testing.T) {
	setup(t)

	_, err := run(t, "nearby", "--lat", "40.1780", "--lon", "44.5128", "--radius", "0")
	assert.Error(t, err)
}

func TestRouteCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "route", "--from-lat", "40.1780", "--from-lon", "44.5128", "--to-lat", "40.1781", "--to-lon", "44.5129")
	require.NoError(t, err)
	assert.Contains(t, out, "120m, 2 min walk (provider, 3 points)")
}

func TestRouteCommand_Fallback(t *testing.T) {
	f := setup(t)
	f.osrmDown.Store(true)

	out, err := run(t, "route", "--from-lat", "0", "--from-lon", "0", "--to-lat", "0", "--to-lon", "1", "--json")
	require.NoError(t, err)

	var route domain.Route
	require.NoError(t, json.Unmarshal([]byte(out), &route))
	assert.True(t, route.IsFallback())
	assert.Equal(t, []domain.RoutePoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}}, route.Path)
	assert.Equal(t, 111195.0, route.DistanceMeters)
}

func TestLocateCommand_FixedPosition(t *testing.T) {
	setup(t)

	out, err := run(t, "locate", "--lat", "40.1780", "--lon", "44.5128")
	require.NoError(t, err)
	assert.Contains(t, out, "You are at 40.178000, 44.512800")
	assert.Contains(t, out, "120m away • 2 min walk")
}

func TestLocateCommand_HalfCoordinate(t *testing.T) {
	setup(t)

	_, err := run(t, "locate", "--lat", "40.1780")
	require.Error(t, err)
	assert.Equal(t, "Location information unavailable.", err.Error())
}

func TestLocateCommand_IPLookupDenied(t *testing.T) {
	setup(t)
	lookup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer lookup.Close()
	t.Setenv("PULPULUCK_LOCATION_IP_LOOKUP_URL", lookup.URL)

	_, err := run(t, "locate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestLocateCommand_IPLookup(t *testing.T) {
	setup(t)
	lookup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","lat":40.178,"lon":44.5128}`))
	}))
	defer lookup.Close()
	t.Setenv("PULPULUCK_LOCATION_IP_LOOKUP_URL", lookup.URL)

	out, err := run(t, "locate", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"fountain"`)
	assert.Contains(t, out, `"source": "provider"`)
}
