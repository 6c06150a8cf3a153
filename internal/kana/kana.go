package kana

import (
	"fmt"
	"strings"
)

type Type string

const (
	Hiragana Type = "hiragana"
	Katakana Type = "katakana"
)

// Kana is one learning item: the glyph shown to the learner and the romaji
// expected back.
type Kana struct {
	Char   string `json:"char"`
	Romaji string `json:"romaji"`
	Type   Type   `json:"type"`
	Group  string `json:"group"`
}

func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Hiragana:
		return Hiragana, nil
	case Katakana:
		return Katakana, nil
	}
	return "", fmt.Errorf("unknown kana type %q", s)
}

// Selection is the set of scripts and groups a learner has chosen to study.
type Selection struct {
	Types  []Type   `json:"types"`
	Groups []string `json:"groups"`
}

func DefaultSelection() Selection {
	return Selection{
		Types:  []Type{Hiragana},
		Groups: []string{"a", "ka", "sa", "ta", "na"},
	}
}

func (s Selection) Validate() error {
	for _, t := range s.Types {
		if _, err := ParseType(string(t)); err != nil {
			return err
		}
	}
	known := make(map[string]bool, len(groupOrder))
	for _, g := range groupOrder {
		known[g] = true
	}
	for _, g := range s.Groups {
		if !known[g] {
			return fmt.Errorf("unknown kana group %q", g)
		}
	}
	return nil
}

// Filter returns catalog entries whose type and group are both selected,
// in catalog order.
func Filter(sel Selection) []Kana {
	types := make(map[Type]bool, len(sel.Types))
	for _, t := range sel.Types {
		types[t] = true
	}
	groups := make(map[string]bool, len(sel.Groups))
	for _, g := range sel.Groups {
		groups[g] = true
	}

	out := make([]Kana, 0)
	for _, k := range catalog {
		if types[k.Type] && groups[k.Group] {
			out = append(out, k)
		}
	}
	return out
}

func All() []Kana {
	out := make([]Kana, len(catalog))
	copy(out, catalog)
	return out
}

func Groups() []string {
	out := make([]string, len(groupOrder))
	copy(out, groupOrder)
	return out
}

var byChar = indexByChar()

func indexByChar() map[string]Kana {
	m := make(map[string]Kana, len(catalog))
	for _, k := range catalog {
		m[k.Char] = k
	}
	return m
}

// Romanize returns the romaji for s when s is exactly one catalog glyph.
// Recognizers listening in Japanese return kana rather than romaji.
func Romanize(s string) (string, bool) {
	k, ok := byChar[strings.TrimSpace(s)]
	if !ok {
		return "", false
	}
	return k.Romaji, true
}
