// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"fmt"

	"github.com/gogpu/gg"

	"github.com/rastercache/tilecache/f32"
)

// visualizeFrame renders f's tile rect, dirty rect, quadtree leaf
// boundaries, and primitive rects to a PNG at path. This is purely a
// debugging aid consuming the engine's public outputs (IsValid,
// LocalDirtyRect, Root.Leaves); it never reaches into tile internals.
func visualizeFrame(f frame, path string) error {
	w := int(f.tileRect.Dx())
	h := int(f.tileRect.Dy())
	if w <= 0 || h <= 0 {
		return fmt.Errorf("tilecache-demo: degenerate tile rect %v", f.tileRect)
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()

	if f.tl.IsValid {
		dc.ClearWithColor(gg.RGB(0.1, 0.35, 0.1))
	} else {
		dc.ClearWithColor(gg.RGB(0.35, 0.1, 0.1))
	}

	dc.SetLineWidth(1)

	dc.SetRGBA(0.4, 0.4, 0.4, 0.6)
	f.tl.Root.Leaves(func(leaf f32.Rectangle) {
		drawRectOutline(dc, leaf)
	})
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("tilecache-demo: rendering %s: %w", path, err)
	}

	dc.SetRGBA(0.3, 0.6, 1.0, 0.5)
	for _, r := range f.primRects {
		drawRectOutline(dc, r)
	}
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("tilecache-demo: rendering %s: %w", path, err)
	}

	dirty := f.tl.LocalDirtyRect
	if !dirty.Empty() {
		dc.SetRGBA(1.0, 0.8, 0.1, 0.8)
		drawRectOutline(dc, dirty)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("tilecache-demo: rendering %s: %w", path, err)
		}
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("tilecache-demo: saving %s: %w", path, err)
	}
	return nil
}

func drawRectOutline(dc *gg.Context, r f32.Rectangle) {
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
}
