package geo

import "math"

// Mean Earth radius in meters for the spherical model.
const earthRadiusMeters = 6371000

// DistanceMeters returns the great-circle distance in meters between two
// coordinates, using the haversine formula on a spherical Earth.
// Arguments are degrees; callers are responsible for passing values in
// range, the function does not validate them.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
