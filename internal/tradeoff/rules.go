package tradeoff

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Condition is one matcher evaluated against a preferences snapshot.
// Exactly one field is set per condition.
type Condition struct {
	// Intent matches an activity intent by substring.
	Intent string `yaml:"intent,omitempty"`
	// Keyword matches vibes and must-dos by substring.
	Keyword string `yaml:"keyword,omitempty"`
	// HardNo matches hard-nos by substring.
	HardNo string `yaml:"hard_no,omitempty"`
	// Flag matches a named boolean derived from preferences:
	// has_children, adults_only_hotel, packed_pace, chill_pace,
	// accessible_hotel.
	Flag string `yaml:"flag,omitempty"`
}

// Effect is an optional preference mutation an option applies when
// chosen. Applying an effect can remove or surface other tradeoffs, which
// is why detection re-runs after every resolution.
type Effect struct {
	DropIntent  string `yaml:"drop_intent,omitempty"`
	DropKeyword string `yaml:"drop_keyword,omitempty"`
	MinBases    int    `yaml:"min_bases,omitempty"`
}

// Option is one resolution choice for a rule.
type Option struct {
	ID     string  `yaml:"id"`
	Label  string  `yaml:"label"`
	Impact string  `yaml:"impact"`
	Effect *Effect `yaml:"effect,omitempty"`
}

// Rule maps a conflicting preference combination to a tradeoff type.
// Unresolvable rules are contradictions: surfaced as hard validation
// errors instead of tradeoffs.
type Rule struct {
	Type         string      `yaml:"type"`
	When         []Condition `yaml:"when"`
	Description  string      `yaml:"description"`
	Unresolvable bool        `yaml:"unresolvable,omitempty"`
	Options      []Option    `yaml:"options,omitempty"`
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules parses a YAML rule table.
func LoadRules(raw []byte) ([]Rule, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return nil, eris.Wrap(err, "tradeoff: parse rules")
	}
	for _, r := range rf.Rules {
		if r.Type == "" || len(r.When) == 0 {
			return nil, eris.Errorf("tradeoff: rule missing type or conditions")
		}
		if !r.Unresolvable && len(r.Options) < 2 {
			return nil, eris.Errorf("tradeoff: rule %s needs at least 2 options", r.Type)
		}
	}
	return rf.Rules, nil
}

// DefaultRules returns the embedded rule table.
func DefaultRules() []Rule {
	rules, err := LoadRules(defaultRulesYAML)
	if err != nil {
		// The embedded table is validated by tests; a parse failure here
		// is a build defect.
		panic(err)
	}
	return rules
}
