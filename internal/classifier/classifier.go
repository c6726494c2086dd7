// Package classifier assigns merchants a label from a fixed, ordered keyword taxonomy.
package classifier

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Classifier evaluates an ordered rule list. The zero value is not usable; use New.
type Classifier struct {
	rules        []Rule
	defaultLabel string
	foldAccents  bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithAccentFolding transliterates text and keywords to ASCII before
// matching, so "Óptica" matches "optica".
func WithAccentFolding() Option {
	return func(c *Classifier) {
		c.foldAccents = true
	}
}

// New builds a classifier over rules, normalizing keywords once.
func New(rules []Rule, defaultLabel string, opts ...Option) *Classifier {
	c := &Classifier{defaultLabel: defaultLabel}
	for _, opt := range opts {
		opt(c)
	}

	c.rules = make([]Rule, 0, len(rules))
	for _, r := range rules {
		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			keywords = append(keywords, c.normalize(k))
		}
		c.rules = append(c.rules, Rule{Label: r.Label, Keywords: keywords})
	}
	return c
}

// normalize lower-cases s, folding accents when enabled.
func (c *Classifier) normalize(s string) string {
	if c.foldAccents {
		s = unidecode.Unidecode(s)
	}
	// cases.Caser is stateful, so each call gets its own.
	return cases.Lower(language.Spanish).String(s)
}

var defaultClassifier = New(DefaultRules, DefaultLabel)

// Classify returns the label for a merchant using the default taxonomy.
func Classify(name, website string) string {
	return defaultClassifier.Classify(name, website)
}

// Classify returns the label of the first rule with a keyword contained in the
// lower-cased "name website" text, or the default label.
func (c *Classifier) Classify(name, website string) string {
	text := c.normalize(name + " " + website)
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(text, k) {
				return r.Label
			}
		}
	}
	return c.defaultLabel
}

// Labels returns every label the classifier can produce, in rule order,
// followed by the default label.
func (c *Classifier) Labels() []string {
	labels := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		labels = append(labels, r.Label)
	}
	return append(labels, c.defaultLabel)
}
