// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package roster supplies the fixed candidate list.
//
// The roster is loaded once at startup from a YAML file, or falls back to
// the built-in list:
//
//	candidates:
//	  - id: c1
//	    name: Fatima Iqbal
//	    role: President
//	    dept: CS
//	    bio: Advocating innovation and inclusivity.
package roster

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/stem-vote/models"
)

// Roster lists the candidates on the ballot.
type Roster interface {
	ListCandidates() []models.Candidate
}

// Static is an immutable, ordered roster.
type Static []models.Candidate

func (s Static) ListCandidates() []models.Candidate {
	out := make([]models.Candidate, len(s))
	copy(out, s)
	return out
}

// IDs returns the candidate ids in roster order.
func (s Static) IDs() []string {
	ids := make([]string, len(s))
	for i, c := range s {
		ids[i] = c.ID
	}
	return ids
}

// Default returns the built-in roster.
func Default() Static {
	return Static{
		{ID: "c1", Name: "Fatima Iqbal", Role: "President", Dept: "CS", Bio: "Advocating innovation and inclusivity.", Color: "from-blue-500 to-cyan-500"},
		{ID: "c2", Name: "Ahmed Khan", Role: "Vice President", Dept: "EE", Bio: "Empowering students with resources.", Color: "from-purple-500 to-fuchsia-500"},
		{ID: "c3", Name: "Sara Ali", Role: "General Secretary", Dept: "Math", Bio: "Transparency and growth for STEM.", Color: "from-emerald-500 to-teal-500"},
	}
}

type file struct {
	Candidates []models.Candidate `yaml:"candidates"`
}

// Load reads a roster file. An empty path returns Default.
func Load(path string) (Static, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML roster. Ids must be non-empty and
// unique.
func Parse(data []byte) (Static, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(f.Candidates) == 0 {
		return nil, fmt.Errorf("roster has no candidates")
	}

	seen := make(map[string]bool, len(f.Candidates))
	out := make(Static, 0, len(f.Candidates))
	for i, c := range f.Candidates {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			return nil, fmt.Errorf("candidate %d: id is required", i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("candidate %d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = true
		if strings.TrimSpace(c.Name) == "" {
			c.Name = c.ID
		}
		out = append(out, c)
	}
	return out, nil
}
