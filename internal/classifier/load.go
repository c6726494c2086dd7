package classifier

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleSet is a taxonomy read from YAML:
//
//	default: Otros
//	fold_accents: false
//	rules:
//	  - label: Bares y restauración
//	    keywords: [bar, cafe]
type RuleSet struct {
	Default     string `yaml:"default"`
	FoldAccents bool   `yaml:"fold_accents"`
	Rules       []struct {
		Label    string   `yaml:"label"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"rules"`
}

// LoadRules decodes a rule set and builds a classifier from it. Rule order
// in the document is evaluation order.
func LoadRules(r io.Reader) (*Classifier, error) {
	var set RuleSet
	if err := yaml.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("decoding rules: %w", err)
	}
	if len(set.Rules) == 0 {
		return nil, fmt.Errorf("rule set has no rules")
	}

	rules := make([]Rule, 0, len(set.Rules))
	for i, r := range set.Rules {
		if r.Label == "" {
			return nil, fmt.Errorf("rule %d has no label", i)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rule %q has no keywords", r.Label)
		}
		for _, k := range r.Keywords {
			if strings.TrimSpace(k) == "" {
				return nil, fmt.Errorf("rule %q has a blank keyword", r.Label)
			}
		}
		rules = append(rules, Rule{Label: r.Label, Keywords: r.Keywords})
	}

	defaultLabel := set.Default
	if defaultLabel == "" {
		defaultLabel = DefaultLabel
	}

	var opts []Option
	if set.FoldAccents {
		opts = append(opts, WithAccentFolding())
	}
	return New(rules, defaultLabel, opts...), nil
}

// LoadRulesFile reads a rule set from path.
func LoadRulesFile(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadRules(f)
}
