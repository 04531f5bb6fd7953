package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ashureev/promptrelay/internal/domain"
)

// Selectors are the ordered strategies used to find page elements.
type Selectors struct {
	Input       domain.Strategy `yaml:"input"`
	SendButtons domain.Strategy `yaml:"send_buttons"`
	Messages    domain.Strategy `yaml:"messages"`
}

// DefaultSelectors match the common chat UIs.
func DefaultSelectors() Selectors {
	return Selectors{
		Input: domain.Strategy{
			domain.CSS("textarea"),
			domain.CSS("textarea[placeholder*='Message']"),
			domain.CSS("textarea[placeholder*='Ask']"),
			domain.CSS("textarea[aria-label*='message']"),
			domain.CSS("div[contenteditable='true']"),
			domain.CSS("[role='textbox']"),
		},
		SendButtons: domain.Strategy{
			domain.CSS("button[type='submit']"),
			domain.CSS("button[aria-label*='Send']"),
			domain.CSS("button[data-testid*='send']"),
		},
		Messages: domain.Strategy{
			domain.CSS("[data-message-author-role='assistant']"),
			domain.CSS("[data-testid*='assistant']"),
			domain.CSS("[data-testid*='message']"),
			domain.CSS(".message"),
			domain.CSS(".chat-message"),
			domain.CSS("article"),
		},
	}
}

// loadSelectors layers SELECTORS_FILE and then the per-strategy env lists
// over the defaults. An empty strategy in a layer keeps the one below it.
func loadSelectors() (Selectors, error) {
	sel := DefaultSelectors()

	if path := getEnv("SELECTORS_FILE", ""); path != "" {
		fromFile, err := ReadSelectorsFile(path)
		if err != nil {
			return Selectors{}, err
		}
		sel = sel.merge(fromFile)
	}

	fromEnv := Selectors{}
	for key, dst := range map[string]*domain.Strategy{
		"INPUT_SELECTORS":       &fromEnv.Input,
		"SEND_BUTTON_SELECTORS": &fromEnv.SendButtons,
		"MESSAGE_SELECTORS":     &fromEnv.Messages,
	} {
		raw := getEnv(key, "")
		if raw == "" {
			continue
		}
		s, err := domain.ParseStrategy(raw)
		if err != nil {
			return Selectors{}, fmt.Errorf("%s: %w", key, err)
		}
		*dst = s
	}
	return sel.merge(fromEnv), nil
}

// ReadSelectorsFile parses a YAML selector file. Entries may be written as
// {method, pattern} maps or as "method:pattern" strings.
func ReadSelectorsFile(path string) (Selectors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Selectors{}, fmt.Errorf("read selectors file: %w", err)
	}
	var raw struct {
		Input       []yaml.Node `yaml:"input"`
		SendButtons []yaml.Node `yaml:"send_buttons"`
		Messages    []yaml.Node `yaml:"messages"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Selectors{}, fmt.Errorf("parse selectors file %s: %w", path, err)
	}

	var out Selectors
	for name, pair := range map[string]struct {
		src []yaml.Node
		dst *domain.Strategy
	}{
		"input":        {raw.Input, &out.Input},
		"send_buttons": {raw.SendButtons, &out.SendButtons},
		"messages":     {raw.Messages, &out.Messages},
	} {
		for i := range pair.src {
			sel, err := decodeSelector(&pair.src[i])
			if err != nil {
				return Selectors{}, fmt.Errorf("selectors file %s: %s[%d]: %w", path, name, i, err)
			}
			*pair.dst = append(*pair.dst, sel)
		}
	}
	return out, nil
}

func decodeSelector(n *yaml.Node) (domain.Selector, error) {
	if n.Kind == yaml.ScalarNode {
		return domain.ParseSelector(n.Value)
	}
	var sel domain.Selector
	if err := n.Decode(&sel); err != nil {
		return domain.Selector{}, err
	}
	if sel.Method == "" {
		sel.Method = domain.MethodCSS
	}
	return sel, nil
}

func (s Selectors) merge(over Selectors) Selectors {
	if len(over.Input) > 0 {
		s.Input = over.Input
	}
	if len(over.SendButtons) > 0 {
		s.SendButtons = over.SendButtons
	}
	if len(over.Messages) > 0 {
		s.Messages = over.Messages
	}
	return s
}
