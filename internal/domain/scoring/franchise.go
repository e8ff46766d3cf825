package scoring

import "strings"

// franchiseDefaults are star ratings used when a game has no signal at all.
// Groups are checked in order and the first matching keyword wins. The order
// is not by rating: the popular 3.5 group is checked before the indie group.
var franchiseDefaults = []struct {
	rating   float64
	keywords []string
}{
	{4.8, []string{"elden ring", "witcher 3", "red dead redemption 2"}},
	{4.5, []string{"god of war", "bloodborne", "sekiro"}},
	{4.3, []string{"horizon", "dark souls", "persona 5"}},
	{3.5, []string{"cyberpunk", "assassin", "call of duty"}},
	{4.4, []string{"hollow knight", "celeste", "hades"}},
	{4.0, []string{"counter-strike", "dota", "overwatch"}},
}

// FranchiseDefault returns the known-franchise star rating for name, or the
// neutral rating.
func FranchiseDefault(name string) float64 {
	lower := strings.ToLower(name)
	for _, f := range franchiseDefaults {
		for _, kw := range f.keywords {
			if strings.Contains(lower, kw) {
				return f.rating
			}
		}
	}
	return neutralStars
}
