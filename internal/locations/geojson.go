package locations

import (
	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/uber/h3-go/v4"

	"github.com/sells-group/friend-map/internal/model"
)

const (
	geohashPrecision = 6
	h3Resolution     = 5
)

// FeatureCollection renders every node of the hierarchy as a GeoJSON point,
// in pre-order. Properties carry the node kind, display name, member count,
// parent id and spatial cell ids for client-side clustering.
func FeatureCollection(roots []*model.LocationNode) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}

	var walkErr error
	for _, r := range roots {
		r.Walk(func(n, parent *model.LocationNode) bool {
			if walkErr != nil {
				return false
			}
			f, err := nodeFeature(n, parent)
			if err != nil {
				walkErr = err
				return false
			}
			fc.Features = append(fc.Features, f)
			return true
		})
	}
	if walkErr != nil {
		return nil, walkErr
	}
	return fc, nil
}

func nodeFeature(n, parent *model.LocationNode) (*geojson.Feature, error) {
	lon, lat := n.Coordinates.Lon(), n.Coordinates.Lat()

	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), h3Resolution)
	if err != nil {
		return nil, eris.Wrapf(err, "locations: h3 cell for %q", n.ID)
	}

	parentID := ""
	if parent != nil {
		parentID = parent.ID
	}

	return &geojson.Feature{
		ID:       n.ID,
		Geometry: geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326),
		Properties: map[string]any{
			"kind":    string(n.Kind),
			"name":    n.Name,
			"count":   len(n.Members),
			"parent":  parentID,
			"geohash": geohash.EncodeWithPrecision(lat, lon, geohashPrecision),
			"h3":      cell.String(),
		},
	}, nil
}
