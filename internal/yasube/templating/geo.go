package templating

import (
	"strconv"
	"strings"
)

const (
	// EUR roughly covers the European Union.
	EUR = "Polygon((31.6 71.2,20.7 71.2,-10.8 56.6,-10.5 34.8,31.6 34.8,31.6 71.2))"
	// MED roughly covers the Mediterranean sea.
	MED = "Polygon((-9.84 27.99,48.87 27.99,48.87 48.46,-9.84 48.46,-9.84 27.99))"
)

// countryHulls are simplified convex hulls (lon, lat) of the European countries GEO RANDOM picks from.
var countryHulls = map[string][][2]float64{
	"AT": {{9.5, 47.0}, {13.7, 46.5}, {16.4, 46.7}, {17.1, 48.0}, {13.0, 48.8}, {9.5, 47.2}},
	"BA": {{15.7, 44.5}, {17.0, 43.0}, {18.5, 42.4}, {19.4, 43.0}, {19.6, 44.9}, {15.7, 45.2}},
	"BE": {{2.5, 51.1}, {4.8, 50.0}, {5.8, 49.5}, {6.2, 50.8}, {4.3, 51.4}},
	"BG": {{22.4, 42.3}, {22.9, 41.3}, {26.1, 41.3}, {28.0, 41.9}, {28.6, 43.7}, {22.4, 44.2}},
	"CH": {{6.0, 46.1}, {7.0, 45.9}, {9.0, 45.8}, {10.5, 46.9}, {9.6, 47.5}, {8.6, 47.8}, {6.8, 47.5}},
	"CZ": {{12.1, 50.3}, {12.9, 49.3}, {14.7, 48.6}, {18.8, 49.4}, {18.9, 49.9}, {14.3, 51.1}},
	"DE": {{6.1, 49.5}, {7.6, 47.6}, {10.2, 47.3}, {13.8, 48.6}, {15.0, 51.1}, {14.1, 53.9}, {8.9, 54.9}, {6.0, 51.9}},
	"DK": {{8.6, 54.9}, {11.5, 54.6}, {12.7, 55.6}, {10.6, 57.7}, {8.1, 56.8}},
	"ES": {{-9.0, 41.9}, {-7.4, 37.2}, {-5.6, 36.0}, {-2.2, 36.7}, {0.3, 38.8}, {3.3, 42.4}, {-1.8, 43.4}, {-9.4, 43.0}},
	"FI": {{22.9, 59.8}, {27.0, 60.5}, {31.6, 62.9}, {29.4, 69.0}, {28.2, 69.9}, {20.6, 69.1}, {21.0, 60.7}},
	"FR": {{-1.8, 43.4}, {3.1, 42.4}, {7.6, 43.7}, {8.2, 49.0}, {2.5, 51.1}, {-4.8, 48.0}, {-1.8, 46.5}},
	"GB": {{-5.7, 50.0}, {1.4, 51.2}, {1.7, 52.7}, {-1.9, 55.6}, {-3.0, 58.6}, {-5.0, 58.6}, {-6.3, 56.7}},
	"GR": {{21.1, 36.8}, {23.5, 34.8}, {28.2, 36.4}, {26.6, 41.0}, {26.6, 41.7}, {20.9, 41.0}, {19.4, 40.0}},
	"HR": {{13.5, 45.1}, {16.0, 43.5}, {18.5, 42.4}, {19.0, 44.9}, {19.4, 46.0}, {15.2, 46.4}},
	"HU": {{16.1, 46.8}, {18.8, 45.9}, {20.3, 46.1}, {22.9, 47.9}, {22.1, 48.4}, {17.3, 48.0}},
	"IE": {{-10.5, 51.6}, {-8.5, 51.4}, {-6.4, 52.2}, {-6.0, 53.3}, {-7.3, 55.4}, {-9.9, 54.3}},
	"IS": {{-22.7, 63.8}, {-18.7, 63.4}, {-13.5, 65.1}, {-16.2, 66.5}, {-22.0, 66.4}, {-24.3, 65.5}},
	"IT": {{7.5, 43.8}, {8.4, 38.9}, {12.4, 37.6}, {15.6, 38.0}, {18.5, 40.2}, {13.8, 45.6}, {12.2, 47.1}, {6.6, 45.1}},
	"LU": {{5.7, 49.5}, {6.2, 49.5}, {6.5, 49.8}, {6.2, 50.1}, {5.8, 50.2}},
	"NL": {{3.4, 51.4}, {5.7, 50.8}, {6.0, 50.8}, {6.8, 51.9}, {7.2, 53.3}, {4.8, 53.0}},
	"NO": {{4.6, 58.0}, {7.0, 58.0}, {11.0, 58.9}, {12.0, 61.0}, {28.2, 69.0}, {31.1, 70.3}, {23.0, 70.9}, {15.4, 68.9}, {5.0, 62.0}},
	"PL": {{14.1, 53.9}, {14.8, 50.9}, {18.8, 49.5}, {22.6, 49.1}, {24.0, 50.4}, {23.5, 54.0}, {19.0, 54.8}},
	"PT": {{-8.9, 37.0}, {-7.4, 37.2}, {-6.2, 41.6}, {-8.2, 42.1}, {-8.9, 42.0}, {-9.5, 38.7}},
	"SE": {{11.1, 58.9}, {12.5, 56.0}, {14.4, 55.4}, {18.8, 60.1}, {21.5, 65.3}, {23.9, 66.0}, {18.0, 68.6}, {12.0, 61.0}},
	"TR": {{26.0, 40.8}, {26.3, 38.2}, {29.7, 36.1}, {36.2, 35.8}, {44.1, 37.1}, {44.8, 39.7}, {41.5, 41.5}, {36.0, 41.7}, {28.0, 42.0}},
	"UA": {{22.1, 48.4}, {28.2, 48.2}, {30.2, 45.8}, {33.5, 44.6}, {38.2, 47.1}, {40.2, 49.6}, {31.8, 52.1}, {24.0, 50.4}},
}

// countries is the ISO2 pick order for GEO RANDOM.
var countries = []string{
	"BA", "BG", "DK", "IE", "AT", "CZ", "FI", "FR", "DE", "GR", "HR", "HU", "IS",
	"IT", "BE", "LU", "NL", "NO", "PL", "PT", "ES", "SE", "CH", "TR", "GB", "UA",
}

// CountryPolygon returns the hull of the given country in the Polygon((lon lat,...)) form, closed on the
// first point, with coordinates rounded to 6 decimals.
func CountryPolygon(iso2 string) (string, bool) {
	points, ok := countryHulls[iso2]
	if !ok {
		return "", false
	}
	parts := make([]string, 0, len(points)+1)
	for _, p := range points {
		parts = append(parts, formatCoordinate(p[0])+" "+formatCoordinate(p[1]))
	}
	parts = append(parts, parts[0])
	return "Polygon((" + strings.Join(parts, ",") + "))", true
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(roundCoordinate(v), 'f', -1, 64)
}

func roundCoordinate(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	r, _ := strconv.ParseFloat(s, 64)
	return r
}
