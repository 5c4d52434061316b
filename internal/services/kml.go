package services

import (
	"fmt"
	"image/color"
	"io"

	kml "github.com/twpayne/go-kml/v2"

	"github.com/quayside/portpulse/server/internal/lib/congestion"
	"github.com/quayside/portpulse/server/internal/lib/geo"
)

// WriteSnapshotKML renders a congestion snapshot as a KML document: the
// port, every ranked vessel as a placemark, and each vessel's recent track
// as a line string. Output opens directly in Google Earth.
func WriteSnapshotKML(w io.Writer, snapshot congestion.Snapshot, portPosition geo.Point) error {
	doc := kml.Document(
		kml.Name(fmt.Sprintf("%s congestion (%s)", snapshot.PortName, snapshot.Level)),
		kml.Description(fmt.Sprintf("Score %d. %d at anchorage, %d on approach, %d in transit. Estimated wait %.1f hours.",
			snapshot.Score, snapshot.Counts.Anchorage, snapshot.Counts.Approach, snapshot.Counts.Transit,
			snapshot.EstimatedWaitHours)),
		kml.SharedStyle("port",
			kml.IconStyle(
				kml.Scale(1.3),
				kml.Icon(kml.Href("https://maps.google.com/mapfiles/kml/shapes/marina.png")),
			),
		),
		kml.SharedStyle("anchorage",
			kml.IconStyle(
				kml.Icon(kml.Href("https://maps.google.com/mapfiles/kml/shapes/sailing.png")),
			),
		),
		kml.SharedStyle("track",
			kml.LineStyle(
				kml.Color(color.RGBA{B: 0xff, A: 0xff}),
				kml.Width(2),
			),
		),
	)

	doc.Add(kml.Placemark(
		kml.Name(snapshot.PortName),
		kml.StyleURL("#port"),
		kml.Point(
			kml.Coordinates(kml.Coordinate{Lon: portPosition.Longitude, Lat: portPosition.Latitude}),
		),
	))

	for _, vessel := range snapshot.Vessels {
		doc.Add(kml.Placemark(
			kml.Name(vessel.VesselName),
			kml.Description(fmt.Sprintf("%s zone, %.1f nm from port, %.1f kn", vessel.Zone, vessel.DistanceNm, vessel.SpeedKnots)),
			kml.StyleURL("#anchorage"),
			kml.Point(
				kml.Coordinates(kml.Coordinate{Lon: vessel.Position.Longitude, Lat: vessel.Position.Latitude}),
			),
		))

		if len(vessel.Track) < 2 {
			continue
		}
		coords := make([]kml.Coordinate, 0, len(vessel.Track))
		for _, point := range vessel.Track {
			coords = append(coords, kml.Coordinate{Lon: point.Longitude, Lat: point.Latitude})
		}
		doc.Add(kml.Placemark(
			kml.Name(vessel.VesselName+" track"),
			kml.StyleURL("#track"),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(coords...),
			),
		))
	}

	return kml.KML(doc).WriteIndent(w, "", "  ")
}
