package viewer

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/midgard-globe/internal/engine/globe"
)

// sceneModeKey maps the number keys to scene modes.
func sceneModeKey(key sdl.Scancode) (globe.SceneMode, bool) {
	switch key {
	case sdl.SCANCODE_1:
		return globe.Scene3D, true
	case sdl.SCANCODE_2:
		return globe.Scene2D, true
	case sdl.SCANCODE_3:
		return globe.Columbus, true
	default:
		return globe.Scene3D, false
	}
}
