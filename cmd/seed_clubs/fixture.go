package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture is the YAML document imported by seed_clubs.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
	Clubs []FixtureClub `yaml:"clubs"`
}

type FixtureUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type FixtureClub struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Private     bool          `yaml:"private"`
	Owner       string        `yaml:"owner"`
	Moderators  []string      `yaml:"moderators"`
	Members     []string      `yaml:"members"`
	Items       []FixtureItem `yaml:"items"`
}

type FixtureItem struct {
	BookID   string `yaml:"book_id"`
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	CoverURL string `yaml:"cover_url"`
	Status   string `yaml:"status"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
}

// LoadFixture reads and parses a fixture file, rejecting unknown fields.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture YAML and checks cross references.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateFixture(&f); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &f, nil
}

func validateFixture(f *Fixture) error {
	known := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.Username == "" {
			return fmt.Errorf("users[%d]: username is required", i)
		}
		if known[u.Username] {
			return fmt.Errorf("users[%d]: duplicate username %q", i, u.Username)
		}
		known[u.Username] = true
	}
	for i, c := range f.Clubs {
		if c.Name == "" {
			return fmt.Errorf("clubs[%d]: name is required", i)
		}
		if !known[c.Owner] {
			return fmt.Errorf("clubs[%d]: unknown owner %q", i, c.Owner)
		}
		for _, name := range append(append([]string{}, c.Moderators...), c.Members...) {
			if !known[name] {
				return fmt.Errorf("clubs[%d]: unknown user %q", i, name)
			}
		}
		for j, it := range c.Items {
			if it.BookID == "" {
				return fmt.Errorf("clubs[%d].items[%d]: book_id is required", i, j)
			}
		}
	}
	return nil
}
