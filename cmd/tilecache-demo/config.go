// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/rastercache/tilecache/tile"
)

// config is the demo's on-disk configuration. Tile holds the engine
// tunables; the rest controls what this command does with them.
type config struct {
	Tile      tile.Config
	OutputDir string
	Scenarios []string
}

const configFile = "tilecache-demo.toml"

func defaultConfig() config {
	return config{
		Tile:      tile.DefaultConfig(),
		OutputDir: "tilecache-demo-output",
		Scenarios: nil,
	}
}

// loadConfig reads configFile, writing out a default one first if it
// doesn't exist yet, the same read-or-initialize shape noisetorch uses
// for its own config.toml.
func loadConfig(path string) (config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfig(path, defaultConfig()); err != nil {
			return config{}, fmt.Errorf("tilecache-demo: initializing %s: %w", path, err)
		}
	} else if err != nil {
		return config{}, fmt.Errorf("tilecache-demo: checking %s: %w", path, err)
	}

	var cfg config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return config{}, fmt.Errorf("tilecache-demo: decoding %s: %w", path, err)
	}
	return cfg, nil
}

func writeConfig(path string, cfg config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(&cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
