package models

import "strings"

// Theme selects which slice of the asset catalog a story draws from.
type Theme string

const (
	ThemeFantasy    Theme = "fantasy"
	ThemeSpace      Theme = "space"
	ThemeUnderwater Theme = "underwater"
	ThemeAdventure  Theme = "adventure"
)

// DefaultTheme is used when a story is created or loaded without one.
const DefaultTheme = ThemeFantasy

// Themes lists every supported theme in display order.
var Themes = []Theme{ThemeFantasy, ThemeSpace, ThemeUnderwater, ThemeAdventure}

func (t Theme) Valid() bool {
	for _, known := range Themes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTheme normalizes s and reports whether it names a known theme.
func ParseTheme(s string) (Theme, bool) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}
