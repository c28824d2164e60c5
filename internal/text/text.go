// Package text renders the prose around a game: the end-of-game summary and the yearly quote.
package text

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/DaanHessen/undercity/internal/engine"
)

var quotes = []string{
	"Tips：低于500人，人类将灭绝。",
	"在流浪的尽头，人类要回答的不是'能否抵达'，而是'抵达后我们是否还配被称为人类'。",
	"没有人的文明，毫无意义。",
	"最初，没有人在意这场灾难……",
	"无论最终结果将人类历史导向何处，我们决定，选择希望！",
	"从历史上看，人类的命运取决于人类的选择。",
	"危难当前，唯有责任。",
	"希望是像钻石一样珍贵的东西！希望是我们唯一回家的方向。",
	"人类的勇气和坚毅，必将被镌刻在星空之下。",
	"我信，我的孩子会信，孩子的孩子会信。",
	"我相信人类的勇气可以跨越时间，当下，未来。",
	"我相信，可以再次看到蓝天，鲜花，挂满枝头。",
	"我们的人一定可以完成任务，不计虚实，不计存亡。",
}

// Quotes returns a copy of the quote pool.
func Quotes() []string { return append([]string(nil), quotes...) }

// Quote picks one quote with rng. A nil rng yields the first quote.
func Quote(rng engine.Rand) string {
	if rng == nil {
		return quotes[0]
	}
	i := int(rng.Float64() * float64(len(quotes)))
	if i >= len(quotes) {
		i = len(quotes) - 1
	}
	return quotes[i]
}

// Stat is one line of the final tally.
type Stat struct {
	Label     string
	Value     string
	Positive  bool
	Threshold float64
}

// Stats grades the final state the way the ending screen does.
func Stats(s engine.AttributeState) []Stat {
	grade := func(label string, v, threshold float64, format func(float64) string) Stat {
		return Stat{Label: label, Value: format(v), Positive: v >= threshold, Threshold: threshold}
	}
	count := func(v float64) string { return Number(v) }
	level := func(v float64) string { return fmt.Sprintf("%d", int(v)) }
	index := func(v float64) string { return fmt.Sprintf("%.2f", v) }
	return []Stat{
		grade("人口规模", s.Population, 1e6, count),
		grade("资源储备", s.Resources, 1e6, count),
		grade("科研等级", float64(s.Research.Level), 50, level),
		grade("建设等级", float64(s.Construction.Level), 50, level),
		grade("人才等级", float64(s.TalentLevel), 10, level),
		grade("民心指数", s.PeopleSupport, 50, index),
		grade("安全指数", s.Security, 50, index),
		grade("文明指数", s.Civilization, 50, index),
	}
}

// Summary renders the end-of-game report as markdown.
func Summary(city string, s engine.AttributeState, ending engine.Ending) string {
	var b strings.Builder
	if city != "" {
		fmt.Fprintf(&b, "# %s\n\n", CityTitle(city))
	}
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", ending.Title, ending.Description)
	b.WriteString("### 📊 游戏总结\n\n")
	fmt.Fprintf(&b, "- 🕒 结束年份：%d年\n", s.Year)
	fmt.Fprintf(&b, "- ⏱️ 存续时间：%d年\n\n", s.Year-engine.EpochYear)
	b.WriteString("| 指标 | 数值 | 评价 |\n|---|---|---|\n")
	for _, st := range Stats(s) {
		mark := "❌"
		if st.Positive {
			mark = "✅"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", st.Label, st.Value, mark)
	}
	return b.String()
}

// CityTitle names the settlement, adding the 地下城 suffix unless the name already ends with it.
func CityTitle(city string) string {
	city = strings.TrimSpace(city)
	if strings.HasSuffix(city, citySuffix) {
		return city
	}
	return city + citySuffix
}

const citySuffix = "地下城"

// Number formats a count with thousands separators.
func Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return humanize.Comma(int64(math.Round(v)))
}

// Compact formats a large count with an SI suffix, for narrow table cells.
func Compact(v float64) string {
	if math.Abs(v) < 1e4 {
		return Number(v)
	}
	return humanize.SIWithDigits(v, 2, "")
}

// BirthRate renders the slider value the way the UI shows it (×0.1 steps).
func BirthRate(rate int) string {
	return fmt.Sprintf("%.1f", float64(rate)*0.1)
}
