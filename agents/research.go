package agents

import (
	"sort"
	"strings"
)

type GovernorateAnalytics struct {
	Population   int `json:"population"`
	Voters       int `json:"voters"`
	YouthPercent int `json:"youthPercent"`
}

// MarketResearchAgent holds voter demographics per governorate.
type MarketResearchAgent struct {
	data map[string]GovernorateAnalytics
}

func NewMarketResearchAgent() *MarketResearchAgent {
	return &MarketResearchAgent{data: map[string]GovernorateAnalytics{
		"baghdad": {Population: 8500000, Voters: 5100000, YouthPercent: 42},
		"basra":   {Population: 2900000, Voters: 1740000, YouthPercent: 38},
		"nineveh": {Population: 3600000, Voters: 2160000, YouthPercent: 45},
		"erbil":   {Population: 1900000, Voters: 1140000, YouthPercent: 40},
		"najaf":   {Population: 1500000, Voters: 900000, YouthPercent: 36},
	}}
}

func (a *MarketResearchAgent) Analytics(governorate string) (GovernorateAnalytics, bool) {
	g, ok := a.data[governorate]
	return g, ok
}

// RecommendTargeting returns governorates with a youth share above 40% for
// campaigns aimed at 18-35 year olds, and baghdad otherwise.
func (a *MarketResearchAgent) RecommendTargeting(c Campaign) []string {
	var out []string
	if strings.Contains(c.Target, "18-35") {
		for gov, d := range a.data {
			if d.YouthPercent > 40 {
				out = append(out, gov)
			}
		}
	}
	if len(out) == 0 {
		return []string{"baghdad"}
	}
	sort.Strings(out)
	return out
}
