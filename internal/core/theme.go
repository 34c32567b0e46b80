package core

// themePresets maps style names to curated palettes. Unknown styles fall back
// to the professional preset.
var themePresets = map[string]Theme{
	"professional": {
		Colors: ThemeColors{
			Primary:    "#1E3A8A",
			Secondary:  "#3B82F6",
			Accent:     "#60A5FA",
			Background: "#FFFFFF",
			Text:       "#1F2937",
		},
		Fonts: ThemeFonts{Heading: "Inter", Body: "Inter", HeadingWeight: "700"},
	},
	"creative": {
		Colors: ThemeColors{
			Primary:    "#EC4899",
			Secondary:  "#F59E0B",
			Accent:     "#8B5CF6",
			Background: "#FFFFFF",
			Text:       "#1F2937",
		},
		Fonts: ThemeFonts{Heading: "Poppins", Body: "Inter", HeadingWeight: "700"},
	},
	"minimal": {
		Colors: ThemeColors{
			Primary:    "#000000",
			Secondary:  "#6B7280",
			Accent:     "#3B82F6",
			Background: "#FFFFFF",
			Text:       "#111827",
		},
		Fonts: ThemeFonts{Heading: "Inter", Body: "Inter", HeadingWeight: "600"},
	},
}

// SuggestTheme returns the curated theme for a style.
func SuggestTheme(style string) Theme {
	if t, ok := themePresets[style]; ok {
		return t
	}
	return themePresets["professional"]
}
