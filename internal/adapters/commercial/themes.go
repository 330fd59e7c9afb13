package commercial

// Theme names accepted by SetTheme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

func style(feature, element string, stylers ...map[string]string) MapTypeStyle {
	return MapTypeStyle{FeatureType: feature, ElementType: element, Stylers: stylers}
}

func color(c string) map[string]string { return map[string]string{"color": c} }

var themes = map[string][]MapTypeStyle{
	ThemeLight: {
		style("poi", "labels", map[string]string{"visibility": "off"}),
		style("transit", "labels.icon", map[string]string{"visibility": "off"}),
	},
	ThemeDark: {
		style("", "geometry", color("#242f3e")),
		style("", "labels.text.stroke", color("#242f3e")),
		style("", "labels.text.fill", color("#746855")),
		style("administrative.locality", "labels.text.fill", color("#d59563")),
		style("poi", "labels", map[string]string{"visibility": "off"}),
		style("poi.park", "geometry", color("#263c3f")),
		style("road", "geometry", color("#38414e")),
		style("road", "geometry.stroke", color("#212a37")),
		style("road", "labels.text.fill", color("#9ca5b3")),
		style("road.highway", "geometry", color("#746855")),
		style("road.highway", "geometry.stroke", color("#1f2835")),
		style("road.highway", "labels.text.fill", color("#f3d19c")),
		style("transit", "geometry", color("#2f3948")),
		style("water", "geometry", color("#17263c")),
		style("water", "labels.text.fill", color("#515c6d")),
		style("water", "labels.text.stroke", color("#17263c")),
	},
}

// normalizeTheme maps unknown names to the light theme.
func normalizeTheme(theme string) string {
	if _, ok := themes[theme]; ok {
		return theme
	}
	return ThemeLight
}

// Styles returns the style list of theme, falling back to light.
func Styles(theme string) []MapTypeStyle {
	return themes[normalizeTheme(theme)]
}
