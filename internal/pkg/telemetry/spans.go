package telemetry

// Span and instrumentation names shared by adapters and use cases.
const (
	TracerName = "github.com/samirrijal/pulpuluck"

	// Outbound providers
	SpanOverpassQuery  = "overpass.query"
	SpanOSRMRoute      = "osrm.route"
	SpanLocationLookup = "location.lookup"

	// Use cases
	SpanFetchFountains = "fountains.fetch"
	SpanWalkingRoute   = "routing.walking"
	SpanLocate         = "locate"
)
