// SPDX-License-Identifier: Unlicense OR MIT

// Command tilecache-demo drives a handful of named scene-builder stories
// through the tile package and dumps a per-frame PNG showing what each
// frame decided: tile validity, the quadtree's leaf boundaries, and the
// accumulated dirty rect.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rastercache/tilecache/f32"
)

func main() {
	configPath := flag.String("config", configFile, "path to the TOML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("tilecache-demo: %v", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatalf("tilecache-demo: creating output dir: %v", err)
	}

	tileRect := f32.Rectangle{Min: f32.Point{X: 0, Y: 0}, Max: f32.Point{X: cfg.Tile.TileSize * 4, Y: cfg.Tile.TileSize * 4}}

	for _, sc := range scenarios {
		if !scenarioSelected(cfg.Scenarios, sc.name) {
			continue
		}
		if err := runScenario(cfg, sc, tileRect); err != nil {
			log.Fatalf("tilecache-demo: scenario %s: %v", sc.name, err)
		}
	}
}

func scenarioSelected(selected []string, name string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == name {
			return true
		}
	}
	return false
}

func runScenario(cfg config, sc scenario, tileRect f32.Rectangle) error {
	e := newEngine(cfg)
	frames := sc.run(e, tileRect)

	dir := filepath.Join(cfg.OutputDir, sc.name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	for _, f := range frames {
		log.Printf("%-24s frame=%d valid=%v reason=%v dirty=%v", sc.name, f.id, f.tl.IsValid, f.tl.InvalidationReason, f.tl.LocalDirtyRect)
		if f.note != "" {
			log.Printf("%-24s   %s", sc.name, f.note)
		}
		path := filepath.Join(dir, fmt.Sprintf("frame-%02d.png", f.id))
		if err := visualizeFrame(f, path); err != nil {
			return err
		}
	}
	return nil
}
