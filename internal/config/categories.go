package config

import "sort"

// Help categories of the built-in commands.
const (
	CategoryInformation = "🕯️ Information"
	CategoryUtilities   = "📢 Utilities"
	CategoryGameplay    = "🎲 Gameplay"
	CategoryModeration  = "🛡️ Moderation"
	CategorySettings    = "⚙️ Settings"
)

var CategoryWeights = map[string]int{
	CategoryInformation: 0,
	CategoryUtilities:   10,
	CategoryGameplay:    20,
	CategoryModeration:  45,
	CategorySettings:    50,
}

// SortCategories orders category names by weight. Unknown categories go last,
// alphabetically.
func SortCategories(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		wi, oki := CategoryWeights[names[i]]
		wj, okj := CategoryWeights[names[j]]
		switch {
		case oki && okj && wi != wj:
			return wi < wj
		case oki != okj:
			return oki
		}
		return names[i] < names[j]
	})
}
