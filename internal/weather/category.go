package weather

// Category is the coarse icon class of a WMO weather code.
type Category string

const (
	CategoryClear        Category = "clear"
	CategoryCloudy       Category = "cloudy"
	CategoryFog          Category = "fog"
	CategoryRain         Category = "rain"
	CategorySnow         Category = "snow"
	CategoryThunderstorm Category = "thunderstorm"
)

// Categories lists every value Classify can return.
var Categories = []Category{
	CategoryClear,
	CategoryCloudy,
	CategoryFog,
	CategoryRain,
	CategorySnow,
	CategoryThunderstorm,
}

var icons = map[Category]string{
	CategoryClear:        "sun",
	CategoryCloudy:       "cloud",
	CategoryFog:          "fog",
	CategoryRain:         "rain",
	CategorySnow:         "snow",
	CategoryThunderstorm: "lightning",
}

// Icon returns the front-end icon name for c.
func (c Category) Icon() string {
	if icon, ok := icons[c]; ok {
		return icon
	}
	return icons[CategoryCloudy]
}

// Classify maps a WMO weather interpretation code to a Category.
// Codes outside the catalog fall back to cloudy.
//
//	0          clear sky
//	1-3        mainly clear, partly cloudy, overcast
//	45, 48     fog, depositing rime fog
//	51-67      drizzle, freezing drizzle, rain, freezing rain
//	71-77      snow fall, snow grains
//	80-82      rain showers
//	85, 86     snow showers
//	95-99      thunderstorm, with or without hail
func Classify(code int) Category {
	switch {
	case code == 0:
		return CategoryClear
	case code >= 1 && code <= 3:
		return CategoryCloudy
	case code == 45 || code == 48:
		return CategoryFog
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return CategoryRain
	case (code >= 71 && code <= 77) || (code >= 85 && code <= 86):
		return CategorySnow
	case code >= 95:
		return CategoryThunderstorm
	default:
		return CategoryCloudy
	}
}
