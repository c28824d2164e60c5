package engine

// Ending is a narrative outcome of a game.
type Ending struct {
	ID          int
	Title       string
	Description string
}

const (
	EndingHomeworld  = 0
	EndingExtinct    = 1
	EndingBankrupt   = 2
	EndingExiled     = 3
	EndingUndefended = 4
	EndingInhuman    = 5
	EndingHope       = 12
	EndingSilence    = 21
	EndingFading     = 22
	EndingWinter     = 23
	EndingMutiny     = 24
	EndingUnknown    = -1
)

var endingCatalog = map[int]Ending{
	EndingHomeworld:  {EndingHomeworld, "抵达新家园", "经过2500年的漫长旅程，人类终于在新的星系建立了文明"},
	EndingExtinct:    {EndingExtinct, "何为文明", "没有人的文明，毫无意义。"},
	EndingBankrupt:   {EndingBankrupt, "快乐百年", "后代的事，与我何干？"},
	EndingExiled:     {EndingExiled, "冰雕艺术家", "放逐，成为冰雕。"},
	EndingUndefended: {EndingUndefended, "我不活啦", "毫无防护的地下城，可能毁于任何意外。"},
	EndingInhuman:    {EndingInhuman, "何为人？", "在流浪的尽头，人类要回答的不是'能否抵达'，而是'抵达后我们是否还配被称为人类'。"},
	EndingHope:       {EndingHope, "未知希望", "在这里，真的可以看到蓝天、鲜花挂满枝头吗？"},
	EndingSilence:    {EndingSilence, "沉默黑暗", "人类已经尽力了……"},
	EndingFading:     {EndingFading, "微光熄灭", "勉强到达目标星系，却无力继续向前了……"},
	EndingWinter:     {EndingWinter, "无尽寒冬", "虽然到达了目的地，但已无力防护自然灾害"},
	EndingMutiny:     {EndingMutiny, "哗变反叛", "既然到达了目的地，这里不再需要管理者"},
	EndingUnknown:    {EndingUnknown, "未知结局", "人类以未知的状态继续着他们的旅程……"},
}

// EndingByID returns the catalog entry, or the unknown ending.
func EndingByID(id int) Ending {
	if e, ok := endingCatalog[id]; ok {
		return e
	}
	return endingCatalog[EndingUnknown]
}

// IsTerminal reports whether the game is over for s.
func IsTerminal(s *AttributeState) bool {
	return s.Population <= 500 ||
		s.Resources <= 0 ||
		s.PeopleSupport <= 0 ||
		s.Security <= 0 ||
		s.Civilization <= 0 ||
		s.Year >= HorizonYear
}

type endingRule struct {
	id   int
	when func(s *AttributeState) bool
}

// First match wins.
var endingRules = []endingRule{
	{EndingExtinct, func(s *AttributeState) bool { return s.Population <= 500 }},
	{EndingBankrupt, func(s *AttributeState) bool { return s.Resources <= 0 }},
	{EndingExiled, func(s *AttributeState) bool { return s.PeopleSupport <= 0 }},
	{EndingUndefended, func(s *AttributeState) bool { return s.Security <= 0 }},
	{EndingInhuman, func(s *AttributeState) bool { return s.Civilization <= 0 }},
	{EndingHomeworld, func(s *AttributeState) bool { return s.Year >= HorizonYear }},
	{EndingHope, func(s *AttributeState) bool { return s.Security > 90 && s.PeopleSupport > 90 }},
	{EndingSilence, func(s *AttributeState) bool {
		return s.Security > 50 && s.Security < 90 && s.PeopleSupport > 50 && s.PeopleSupport < 90
	}},
	{EndingFading, func(s *AttributeState) bool { return s.Security < 50 && s.PeopleSupport < 50 }},
	{EndingWinter, func(s *AttributeState) bool { return s.Security < 50 && s.PeopleSupport >= 50 }},
	{EndingMutiny, func(s *AttributeState) bool { return s.Security >= 50 && s.PeopleSupport < 50 }},
}

// ResolveEnding picks exactly one ending for s.
func ResolveEnding(s *AttributeState) Ending {
	for _, r := range endingRules {
		if r.when(s) {
			return EndingByID(r.id)
		}
	}
	return EndingByID(EndingUnknown)
}
