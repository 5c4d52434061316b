package geo

// Point represents a geographic coordinate
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// GeoUtils interface defines geographic calculation utilities
type GeoUtils interface {
	// Calculate great-circle distance between two points in nautical miles
	PointToPoint(p1, p2 Point) (float64, error)

	// Calculate initial bearing from p1 to p2 in degrees [0, 360)
	InitialBearing(p1, p2 Point) (float64, error)

	// Absolute angular difference between two compass headings, wrapped to [0, 180]
	HeadingDelta(h1, h2 float64) float64

	// Decode an encoded polyline string to a point sequence
	DecodePolyline(encoded string) ([]Point, error)

	// Calculate distance between coordinate pairs (convenience method)
	DistanceFromCoords(lat1, lon1, lat2, lon2 float64) (float64, error)
}

// NewGeoUtils is implemented in geo.go
