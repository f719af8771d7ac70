// Package ingesting turns raw ledger uploads into stored sales records:
// header classification, row parsing and the deduplication gate.
package ingesting

import "strings"

// FieldKind is the semantic type assigned to a ledger column.
type FieldKind int

const (
	KindText FieldKind = iota
	KindInteger
	KindDecimal
)

// Rule binds a header substring to a field kind. Rules are checked in order
// and the first match wins, so quantity markers must come before the broader
// price/percent markers.
type Rule struct {
	Term string
	Kind FieldKind
}

// Classifier maps a ledger column header to a field kind using an ordered,
// case-sensitive substring lookup. It is a closed vocabulary, not type
// inference: the same header set always classifies the same way.
type Classifier struct {
	rules []Rule
}

func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// NewClassifierFromTerms builds the rule list from the configured header
// vocabulary, integer markers taking priority over decimal markers.
func NewClassifierFromTerms(integerTerms, decimalTerms []string) *Classifier {
	rules := make([]Rule, 0, len(integerTerms)+len(decimalTerms))
	for _, term := range integerTerms {
		rules = append(rules, Rule{Term: term, Kind: KindInteger})
	}
	for _, term := range decimalTerms {
		rules = append(rules, Rule{Term: term, Kind: KindDecimal})
	}
	return &Classifier{rules: rules}
}

// Classify returns the field kind for a header. Headers matching no rule are
// plain text.
func (c *Classifier) Classify(header string) FieldKind {
	for _, rule := range c.rules {
		if strings.Contains(header, rule.Term) {
			return rule.Kind
		}
	}
	return KindText
}
