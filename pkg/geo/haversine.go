package geo

import "math"

// earthRadiusKm - средний радиус Земли
const earthRadiusKm = 6371.0

// Distance возвращает расстояние по дуге большого круга между двумя
// точками в километрах (формула гаверсинусов). Чистая функция,
// используется только для отображаемых расстояний, не для матчинга.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
