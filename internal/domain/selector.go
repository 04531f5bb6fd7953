package domain

import (
	"fmt"
	"strings"
)

// Method is how a selector pattern is evaluated against the DOM.
type Method string

const (
	MethodCSS   Method = "css"
	MethodXPath Method = "xpath"
)

// Selector is one (method, pattern) guess at locating a node.
type Selector struct {
	Method  Method `yaml:"method" json:"method"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// Strategy is an ordered list of selectors, highest priority first.
type Strategy []Selector

// CSS is shorthand for a css selector.
func CSS(pattern string) Selector {
	return Selector{Method: MethodCSS, Pattern: pattern}
}

func (s Selector) String() string {
	return string(s.Method) + ":" + s.Pattern
}

// ParseSelector reads "css:<pattern>", "xpath:<pattern>" or a bare css pattern.
func ParseSelector(raw string) (Selector, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Selector{}, fmt.Errorf("empty selector")
	}
	for _, m := range []Method{MethodCSS, MethodXPath} {
		prefix := string(m) + ":"
		if strings.HasPrefix(raw, prefix) {
			pattern := strings.TrimSpace(strings.TrimPrefix(raw, prefix))
			if pattern == "" {
				return Selector{}, fmt.Errorf("selector %q has no pattern", raw)
			}
			return Selector{Method: m, Pattern: pattern}, nil
		}
	}
	return CSS(raw), nil
}

// ParseStrategy splits a "||"-separated list into a Strategy.
func ParseStrategy(raw string) (Strategy, error) {
	var out Strategy
	for _, part := range strings.Split(raw, "||") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sel, err := ParseSelector(part)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

// Validate checks every entry has a known method and a pattern.
func (s Strategy) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("strategy has no selectors")
	}
	for i, sel := range s {
		if sel.Method != MethodCSS && sel.Method != MethodXPath {
			return fmt.Errorf("selector %d: unknown method %q", i, sel.Method)
		}
		if strings.TrimSpace(sel.Pattern) == "" {
			return fmt.Errorf("selector %d: empty pattern", i)
		}
	}
	return nil
}
