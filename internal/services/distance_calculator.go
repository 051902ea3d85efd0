package services

import (
	"math"
	"strconv"
	"strings"

	"trip/pkg/utils"
)

const (
	earthRadiusMi = 3963.2
	earthRadiusKm = 6378.1

	metersToMiles = 0.000621371
	metersToKm    = 0.001
)

func degToRad(d float64) float64 {
	return d * (math.Pi / 180)
}

// centralAngle is the angle in radians between two points on a sphere.
func centralAngle(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degToRad(lat2 - lat1)
	dLon := degToRad(lon2 - lon1)

	lat1Rad := degToRad(lat1)
	lat2Rad := degToRad(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// parseLatLng reads "lat,lng".
func parseLatLng(raw string) (float64, float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, utils.ErrInvalidLatLng
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, utils.ErrInvalidLatLng
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, utils.ErrInvalidLatLng
	}
	return lat, lng, nil
}

// earthRadius returns the radius in unit and the factor converting meters to unit.
func earthRadius(unit string) (float64, float64, error) {
	switch unit {
	case "mi":
		return earthRadiusMi, metersToMiles, nil
	case "km":
		return earthRadiusKm, metersToKm, nil
	}
	return 0, 0, utils.ErrInvalidUnit
}
