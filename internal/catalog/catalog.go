package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	stderrors "errors"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/DaanHessen/undercity/internal/engine"
)

//go:embed data/events.yaml
var defaultEvents []byte

// Content is everything a game needs from files, plus a short version hash mixed into the seed.
type Content struct {
	Levels  engine.LevelConfig
	Events  []engine.EventDefinition
	Version string
}

// YearTable decodes a year-requirement map whose keys may be written as strings or integers.
type YearTable engine.YearTable

func (t *YearTable) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: year requirements must be a mapping", n.Line)
	}
	out := make(YearTable, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		level, err := strconv.Atoi(strings.TrimSpace(k.Value))
		if err != nil {
			return errors.Wrapf(err, "line %d: level key %q", k.Line, k.Value)
		}
		var years float64
		if err := v.Decode(&years); err != nil {
			return errors.Wrapf(err, "line %d: years for level %d", v.Line, level)
		}
		out[level] = int(years)
	}
	*t = out
	return nil
}

type levelFile struct {
	Research                     []float64 `yaml:"research"`
	Construction                 []float64 `yaml:"construction"`
	YearRequirements             YearTable `yaml:"yearRequirements"`
	ResearchYearRequirements     YearTable `yaml:"researchYearRequirements"`
	ConstructionYearRequirements YearTable `yaml:"constructionYearRequirements"`
}

// ParseLevels decodes a level requirement document (YAML or JSON).
func ParseLevels(data []byte) (engine.LevelConfig, error) {
	var f levelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return engine.LevelConfig{}, errors.Wrap(err, "decode levels")
	}
	cfg := engine.LevelConfig{
		Research:          f.Research,
		Construction:      f.Construction,
		ResearchYears:     engine.YearTable(f.ResearchYearRequirements),
		ConstructionYears: engine.YearTable(f.ConstructionYearRequirements),
		SharedYears:       engine.YearTable(f.YearRequirements),
	}
	if err := cfg.Validate(); err != nil {
		return engine.LevelConfig{}, err
	}
	return cfg, nil
}

// LoadLevels reads path. An empty path yields the default config; an unreadable or invalid file
// yields the default config together with the reason.
func LoadLevels(path string) (engine.LevelConfig, error) {
	if path == "" {
		return engine.DefaultLevelConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.DefaultLevelConfig(), &engine.ConfigurationError{Source: path, Reason: "read levels", Err: err}
	}
	cfg, err := ParseLevels(data)
	if err != nil {
		return engine.DefaultLevelConfig(), &engine.ConfigurationError{Source: path, Reason: "using default levels", Err: err}
	}
	return cfg, nil
}

type rawEvent struct {
	Name        yaml.Node `yaml:"name"`
	Description yaml.Node `yaml:"description"`
	Condition   yaml.Node `yaml:"condition"`
	Probability yaml.Node `yaml:"probability"`
	Effect      yaml.Node `yaml:"effect"`
}

type eventFile struct {
	Events []yaml.Node `yaml:"events"`
}

// ParseEvents decodes an event document: either {events: [...]} or a bare list. A field that
// does not decode makes its event inert (condition false, probability 0) instead of failing the
// document; an entry that is not a mapping is dropped.
func ParseEvents(data []byte) ([]engine.EventDefinition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode events")
	}
	var items []yaml.Node
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	switch root.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		if err := root.Decode(&items); err != nil {
			return nil, errors.Wrap(err, "decode event list")
		}
	case yaml.MappingNode:
		var f eventFile
		if err := root.Decode(&f); err != nil {
			return nil, errors.Wrap(err, "decode event file")
		}
		if f.Events == nil {
			return nil, errors.New("event file has no events list")
		}
		items = f.Events
	default:
		return nil, errors.Errorf("line %d: event file must be a list or a mapping", root.Line)
	}

	var problems []string
	defs := make([]engine.EventDefinition, 0, len(items))
	for i := range items {
		var r rawEvent
		if items[i].Kind != yaml.MappingNode {
			problems = append(problems, errors.Errorf("event %d: line %d: expected a mapping", i+1, items[i].Line).Error())
			continue
		}
		if err := items[i].Decode(&r); err != nil {
			problems = append(problems, errors.Wrapf(err, "event %d", i+1).Error())
			continue
		}
		var def engine.EventDefinition
		bad := false
		fields := []struct {
			name string
			node *yaml.Node
			out  any
		}{
			{"name", &r.Name, &def.Name},
			{"description", &r.Description, &def.Description},
			{"condition", &r.Condition, &def.Condition},
			{"probability", &r.Probability, &def.Probability},
			{"effect", &r.Effect, &def.Effect},
		}
		for _, f := range fields {
			if err := decodeScalar(f.node, f.out); err != nil {
				problems = append(problems, errors.Wrapf(err, "event %d %s", i+1, f.name).Error())
				bad = true
			}
		}
		if bad {
			def.Condition = "false"
			def.Probability = 0
		}
		defs = append(defs, def)
	}
	if len(problems) > 0 {
		return defs, errors.New(strings.Join(problems, "; "))
	}
	return defs, nil
}

func decodeScalar(n *yaml.Node, out any) error {
	if n.Kind == 0 || n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: expected a scalar", n.Line)
	}
	return n.Decode(out)
}

// DefaultEvents returns the bundled catalog.
func DefaultEvents() []engine.EventDefinition {
	defs, err := ParseEvents(defaultEvents)
	if err != nil {
		panic(errors.Wrap(err, "bundled events"))
	}
	return defs
}

// LoadEvents reads path. An empty path yields the bundled catalog; an unreadable file yields an
// empty catalog and the reason, so no events fire.
func LoadEvents(path string) ([]engine.EventDefinition, error) {
	if path == "" {
		return DefaultEvents(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &engine.ConfigurationError{Source: path, Reason: "read events", Err: err}
	}
	defs, err := ParseEvents(data)
	if err != nil {
		return defs, &engine.ConfigurationError{Source: path, Reason: "events degraded", Err: err}
	}
	return defs, nil
}

// Load assembles game content from the given files, degrading per file.
func Load(levelsPath, eventsPath string) (Content, error) {
	levels, lerr := LoadLevels(levelsPath)
	events, eerr := LoadEvents(eventsPath)
	c := Content{Levels: levels, Events: events, Version: version(levelsPath, eventsPath)}
	return c, stderrors.Join(lerr, eerr)
}

func version(levelsPath, eventsPath string) string {
	h := sha256.New()
	for _, src := range []struct {
		path     string
		fallback []byte
	}{
		{levelsPath, []byte("default-levels")},
		{eventsPath, defaultEvents},
	} {
		data := src.fallback
		if src.path != "" {
			if b, err := os.ReadFile(src.path); err == nil {
				data = b
			}
		}
		_, _ = h.Write(data)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}
