package albumart

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

const (
	coverA = "https://coverartarchive.org/release/a/front-500"
	coverB = "https://coverartarchive.org/release/b/front-500"
)

func solid(c color.Color, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRenderer_NilProtocol(t *testing.T) {
	r := New(nil)
	r.SetSize(8, 4)

	if r.Enabled() {
		t.Error("Enabled() = true without a protocol")
	}
	if cmd := r.Prepare(coverA, solid(color.White, 10, 10)); cmd != "" {
		t.Errorf("Prepare() = %q, want empty", cmd)
	}
	if r.HasImage() {
		t.Error("HasImage() = true without a protocol")
	}
	if got := r.Placeholder(); got != BlankPlaceholder(8, 4) {
		t.Error("Placeholder() should be blank without a protocol")
	}
}

func TestRenderer_Prepare_Kitty(t *testing.T) {
	r := New(&KittyProtocol{})
	r.SetSize(8, 4)

	cmd := r.Prepare(coverA, solid(color.RGBA{R: 255, A: 255}, 64, 64))
	if !strings.Contains(cmd, escStart) || !strings.Contains(cmd, "a=t") {
		t.Errorf("Prepare() should return a transmit command, got %q", cmd)
	}
	if !r.HasImage() || r.CurrentURL() != coverA {
		t.Errorf("HasImage() = %v, CurrentURL() = %q", r.HasImage(), r.CurrentURL())
	}

	if again := r.Prepare(coverA, solid(color.White, 64, 64)); again != "" {
		t.Errorf("Prepare() of the same url = %q, want empty", again)
	}
}

func TestRenderer_Prepare_DeletesOldImage(t *testing.T) {
	r := New(&KittyProtocol{})
	r.SetSize(8, 4)

	_ = r.Prepare(coverA, solid(color.White, 16, 16))
	cmd := r.Prepare(coverB, solid(color.Black, 16, 16))

	if !strings.Contains(cmd, "a=d") {
		t.Error("Prepare() should delete the previous image")
	}
	if !strings.Contains(cmd, "a=t") {
		t.Error("Prepare() should transmit the new image")
	}
	if r.CurrentURL() != coverB {
		t.Errorf("CurrentURL() = %q, want %q", r.CurrentURL(), coverB)
	}
}

func TestRenderer_Prepare_ZeroSize(t *testing.T) {
	r := New(&KittyProtocol{})

	if cmd := r.Prepare(coverA, solid(color.White, 16, 16)); cmd != "" {
		t.Errorf("Prepare() with no size = %q, want empty", cmd)
	}
	if r.HasImage() {
		t.Error("HasImage() = true with no size")
	}
}

func TestRenderer_SetSize_ForcesReencode(t *testing.T) {
	r := New(&KittyProtocol{})
	r.SetSize(8, 4)
	_ = r.Prepare(coverA, solid(color.White, 16, 16))

	r.SetSize(10, 5)
	if w, h := r.Size(); w != 10 || h != 5 {
		t.Errorf("Size() = %dx%d, want 10x5", w, h)
	}
	if cmd := r.Prepare(coverA, solid(color.White, 16, 16)); !strings.Contains(cmd, "a=t") {
		t.Error("Prepare() after a resize should transmit again")
	}
}

func TestRenderer_Clear(t *testing.T) {
	r := New(&KittyProtocol{})
	r.SetSize(8, 4)
	_ = r.Prepare(coverA, solid(color.White, 16, 16))

	cmd := r.Clear()
	if !strings.Contains(cmd, "a=d") {
		t.Errorf("Clear() = %q, want a delete command", cmd)
	}
	if r.HasImage() || r.CurrentURL() != "" {
		t.Error("Clear() should reset the renderer")
	}
	if r.PlacementCmd(1, 1) != "" {
		t.Error("PlacementCmd() after Clear() should be empty")
	}
	if again := r.Clear(); again != "" {
		t.Errorf("second Clear() = %q, want empty", again)
	}
}

func TestRenderer_PlacementCmd(t *testing.T) {
	r := New(&KittyProtocol{})
	r.SetSize(8, 4)

	if cmd := r.PlacementCmd(3, 5); cmd != "" {
		t.Errorf("PlacementCmd() with no image = %q, want empty", cmd)
	}

	_ = r.Prepare(coverA, solid(color.White, 16, 16))
	cmd := r.PlacementCmd(3, 5)
	if !strings.Contains(cmd, "\x1b[3;5H") || !strings.Contains(cmd, "c=8,r=4") {
		t.Errorf("PlacementCmd() = %q", cmd)
	}
}

func TestRenderer_Blocks(t *testing.T) {
	r := New(&BlocksProtocol{})
	r.SetSize(6, 3)

	if cmd := r.Prepare(coverA, solid(color.RGBA{R: 10, G: 20, B: 30, A: 255}, 12, 12)); cmd != "" {
		t.Errorf("Prepare() = %q, blocks need no terminal command", cmd)
	}
	if r.PlacementCmd(1, 1) != "" {
		t.Error("blocks should not place images")
	}

	art := r.Placeholder()
	lines := strings.Split(art, "\n")
	if len(lines) != 3 {
		t.Fatalf("Placeholder() has %d lines, want 3", len(lines))
	}
	for i, line := range lines {
		if w := ansi.StringWidth(line); w != 6 {
			t.Errorf("line %d width = %d, want 6", i, w)
		}
	}
	if !strings.Contains(art, "38;2;10;20;30") {
		t.Errorf("Placeholder() should carry the image color, got %q", art)
	}

	_ = r.Clear()
	if r.Placeholder() != BlankPlaceholder(6, 3) {
		t.Error("Placeholder() after Clear() should be blank")
	}
}

func TestRenderBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})
	img.Set(1, 1, color.RGBA{B: 255, A: 255})

	got := RenderBlocks(img, 2, 1)
	want := strings.Repeat("\x1b[38;2;255;0;0m\x1b[48;2;0;0;255m▀", 2) + sgrReset
	if got != want {
		t.Errorf("RenderBlocks() = %q, want %q", got, want)
	}

	if RenderBlocks(nil, 2, 1) != "" || RenderBlocks(img, 0, 1) != "" {
		t.Error("RenderBlocks() should be empty for no image or no size")
	}
}

func TestDetect_Override(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"kitty", "kitty"},
		{"blocks", "blocks"},
		{"none", "none"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(ProtocolEnv, tt.value)

			var got string
			switch Detect().(type) {
			case *KittyProtocol:
				got = "kitty"
			case *BlocksProtocol:
				got = "blocks"
			case nil:
				got = "none"
			}
			if got != tt.want {
				t.Errorf("Detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsKittySupported(t *testing.T) {
	reset := func(t *testing.T) {
		for _, k := range []string{"CONTOUR_PROFILE", "KITTY_WINDOW_ID", "TERM", "TERM_PROGRAM", "GHOSTTY_RESOURCES_DIR", "KONSOLE_VERSION"} {
			t.Setenv(k, "")
		}
	}

	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"kitty window", map[string]string{"KITTY_WINDOW_ID": "1"}, true},
		{"wezterm", map[string]string{"TERM_PROGRAM": "WezTerm"}, true},
		{"new konsole", map[string]string{"KONSOLE_VERSION": "230401"}, true},
		{"old konsole", map[string]string{"KONSOLE_VERSION": "210801"}, false},
		{"contour wins", map[string]string{"CONTOUR_PROFILE": "x", "KITTY_WINDOW_ID": "1"}, false},
		{"plain xterm", map[string]string{"TERM": "xterm-256color"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := IsKittySupported(); got != tt.want {
				t.Errorf("IsKittySupported() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTrueColor(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("COLORTERM", "truecolor")
	if !IsTrueColor() {
		t.Error("IsTrueColor() = false with COLORTERM=truecolor")
	}

	t.Setenv("COLORTERM", "")
	if IsTrueColor() {
		t.Error("IsTrueColor() = true without COLORTERM")
	}

	t.Setenv("TERM", "xterm-direct")
	if !IsTrueColor() {
		t.Error("IsTrueColor() = false with a -direct TERM")
	}
}
