package engine

// String backed enums so values survive the chronicle tables and content files unchanged.

type Track string
type Attribute string
type LogKind string
type LogTopic string
type Phase string

const (
	TrackResearch     Track = "research"
	TrackConstruction Track = "construction"
)

// AllTracks is also the processing order: research before construction.
var AllTracks = []Track{TrackResearch, TrackConstruction}

const (
	AttrPeopleSupport     Attribute = "peopleSupport"
	AttrSecurity          Attribute = "security"
	AttrCivilization      Attribute = "civilization"
	AttrResources         Attribute = "resources"
	AttrPopulation        Attribute = "population"
	AttrResearchLevel     Attribute = "researchLevel"
	AttrConstructionLevel Attribute = "constructionLevel"
	AttrTalentLevel       Attribute = "talentLevel"
)

var AllAttributes = []Attribute{AttrPeopleSupport, AttrSecurity, AttrCivilization, AttrResources, AttrPopulation, AttrResearchLevel, AttrConstructionLevel, AttrTalentLevel}

const (
	LogNormal  LogKind = "normal"
	LogWarning LogKind = "warning"
	LogEvent   LogKind = "event"
)

var AllLogKinds = []LogKind{LogNormal, LogWarning, LogEvent}

const (
	TopicStrategy   LogTopic = "strategy"
	TopicMilestone  LogTopic = "milestone"
	TopicLevelUp    LogTopic = "levelup"
	TopicBlocked    LogTopic = "blocked"
	TopicSettlement LogTopic = "settlement"
	TopicWarning    LogTopic = "warning"
	TopicEvent      LogTopic = "event"
	TopicEnding     LogTopic = "ending"
	TopicConfig     LogTopic = "config"
)

var AllLogTopics = []LogTopic{TopicStrategy, TopicMilestone, TopicLevelUp, TopicBlocked, TopicSettlement, TopicWarning, TopicEvent, TopicEnding, TopicConfig}

const (
	PhaseAccumulating Phase = "accumulating"
	PhaseWaiting      Phase = "waiting"
	PhaseBlocked      Phase = "blocked"
	PhaseReady        Phase = "ready"
	PhaseMaxed        Phase = "maxed"
)

var AllPhases = []Phase{PhaseAccumulating, PhaseWaiting, PhaseBlocked, PhaseReady, PhaseMaxed}

// attributeLabels maps the in-game (Chinese) labels used by content files onto attributes.
var attributeLabels = map[string]Attribute{
	"民心":   AttrPeopleSupport,
	"安全":   AttrSecurity,
	"文明":   AttrCivilization,
	"资源":   AttrResources,
	"人口":   AttrPopulation,
	"科研等级": AttrResearchLevel,
	"建设等级": AttrConstructionLevel,
	"人才等级": AttrTalentLevel,
}

// Generic helpers
func contains[T ~string](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (t Track) Validate() bool     { return contains(AllTracks, t) }
func (a Attribute) Validate() bool { return contains(AllAttributes, a) }
func (k LogKind) Validate() bool   { return contains(AllLogKinds, k) }
func (t LogTopic) Validate() bool  { return contains(AllLogTopics, t) }
func (p Phase) Validate() bool     { return contains(AllPhases, p) }

// Label returns the in-game name of a track.
func (t Track) Label() string {
	if t == TrackConstruction {
		return "建设"
	}
	return "科研"
}

// Label returns the in-game name of an attribute, falling back to the field name.
func (a Attribute) Label() string {
	for label, attr := range attributeLabels {
		if attr == a {
			return label
		}
	}
	return string(a)
}

// IsPercent reports whether the attribute is a 0-100 index.
func (a Attribute) IsPercent() bool {
	return a == AttrPeopleSupport || a == AttrSecurity || a == AttrCivilization
}

// IsLevel reports whether the attribute is an integer tier.
func (a Attribute) IsLevel() bool {
	return a == AttrResearchLevel || a == AttrConstructionLevel || a == AttrTalentLevel
}

// LookupAttribute resolves either an in-game label or a field name.
func LookupAttribute(name string) (Attribute, bool) {
	if a, ok := attributeLabels[name]; ok {
		return a, true
	}
	a := Attribute(name)
	return a, a.Validate()
}
