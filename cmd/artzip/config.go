package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultEndpoint = "http://localhost:8080/api/v1"

// Profile is the persisted CLI state.
type Profile struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token,omitempty"`
	UserID   int64  `yaml:"user_id,omitempty"`
	Email    string `yaml:"email,omitempty"`

	path string
}

// LoadProfile reads path. A missing file yields defaults.
func LoadProfile(path string) (*Profile, error) {
	p := &Profile{Endpoint: defaultEndpoint, path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.Endpoint == "" {
		p.Endpoint = defaultEndpoint
	}
	return p, nil
}

// Save writes the profile with owner-only permissions since it holds a token.
func (p *Profile) Save() error {
	raw, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(p.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(p.path, raw, 0o600)
}

// RequireLogin fails when no token is stored.
func (p *Profile) RequireLogin() error {
	if p.Token == "" || p.UserID == 0 {
		return errors.New("not logged in: run `artzip login` first")
	}
	return nil
}
