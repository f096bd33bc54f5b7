// Package geometry converts buyer target areas to and from GeoJSON.
package geometry

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"dealgrade/server/internal/models"
)

// ParseTargetAreas reads a FeatureCollection of buyer target areas.
// Polygons and multipolygons become perimeter areas, points need a positive
// "radius_km" property, and a multipoint becomes the convex hull of its pins.
// Names come from the "name" property.
func ParseTargetAreas(data []byte) ([]models.GeoArea, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson: %w", err)
	}

	areas := make([]models.GeoArea, 0, len(fc.Features))
	for i, f := range fc.Features {
		name := f.Properties.MustString("name", fmt.Sprintf("area %d", i+1))

		switch g := f.Geometry.(type) {
		case orb.Polygon:
			area, err := polygonArea(name, g)
			if err != nil {
				return nil, err
			}
			areas = append(areas, area)
		case orb.MultiPolygon:
			for j, poly := range g {
				area, err := polygonArea(fmt.Sprintf("%s #%d", name, j+1), poly)
				if err != nil {
					return nil, err
				}
				areas = append(areas, area)
			}
		case orb.Point:
			radius := f.Properties.MustFloat64("radius_km", 0)
			if radius <= 0 {
				return nil, fmt.Errorf("area %s: point needs a positive radius_km", name)
			}
			areas = append(areas, models.GeoArea{
				Name:     name,
				Center:   &models.Location{Latitude: g.Lat(), Longitude: g.Lon()},
				RadiusKm: radius,
			})
		case orb.MultiPoint:
			hull := ConvexHull(g)
			if hull == nil {
				return nil, fmt.Errorf("area %s: at least 3 distinct pins are required", name)
			}
			areas = append(areas, models.GeoArea{Name: name, Perimeter: ringToPerimeter(hull)})
		default:
			return nil, fmt.Errorf("area %s: unsupported geometry %T", name, f.Geometry)
		}
	}
	return areas, nil
}

func polygonArea(name string, poly orb.Polygon) (models.GeoArea, error) {
	if len(poly) == 0 || len(poly[0]) < 4 {
		return models.GeoArea{}, fmt.Errorf("area %s: polygon ring needs at least 4 positions", name)
	}
	return models.GeoArea{Name: name, Perimeter: ringToPerimeter(poly[0])}, nil
}

func ringToPerimeter(ring orb.Ring) [][2]float64 {
	perimeter := make([][2]float64, 0, len(ring))
	for _, p := range ring {
		perimeter = append(perimeter, [2]float64{p[0], p[1]})
	}
	return perimeter
}

// TargetAreasFeatureCollection renders areas for map clients. Radius areas
// are points carrying a "radius_km" property.
func TargetAreasFeatureCollection(areas []models.GeoArea) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, area := range areas {
		var feature *geojson.Feature
		if area.Center != nil {
			feature = geojson.NewFeature(orb.Point{area.Center.Longitude, area.Center.Latitude})
			feature.Properties["radius_km"] = area.RadiusKm
		} else {
			ring := make(orb.Ring, 0, len(area.Perimeter)+1)
			for _, p := range area.Perimeter {
				ring = append(ring, orb.Point{p[0], p[1]})
			}
			if len(ring) > 0 && !ring.Closed() {
				ring = append(ring, ring[0])
			}
			feature = geojson.NewFeature(orb.Polygon{ring})
		}
		feature.Properties["name"] = area.Name
		fc.Append(feature)
	}
	return fc
}

// ConvexHull returns the closed counter-clockwise hull of points, or nil when
// fewer than 3 non-collinear points are given.
func ConvexHull(points []orb.Point) orb.Ring {
	pts := make([]orb.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	cross := func(o, a, b orb.Point) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	// Monotone chain: lower hull then upper hull
	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// The last point repeats the first, closing the ring
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}
