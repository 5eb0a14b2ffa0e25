package shader

import (
	"embed"
	"fmt"
	"strings"

	"github.com/Faultbox/midgard-globe/internal/engine/surface"
)

//go:embed glsl/*.vert glsl/*.frag
var sources embed.FS

// Load returns an embedded shader source by file name.
func Load(name string) (string, error) {
	b, err := sources.ReadFile("glsl/" + name)
	if err != nil {
		return "", fmt.Errorf("load shader %s: %w", name, err)
	}
	return string(b), nil
}

// WithDefines inserts #define lines after the #version directive.
func WithDefines(source string, defines []string) string {
	if len(defines) == 0 {
		return source
	}

	var b strings.Builder
	for _, d := range defines {
		b.WriteString("#define ")
		b.WriteString(d)
		b.WriteByte('\n')
	}

	if strings.HasPrefix(source, "#version") {
		if i := strings.IndexByte(source, '\n'); i >= 0 {
			return source[:i+1] + b.String() + source[i+1:]
		}
		return source + "\n" + b.String()
	}
	return b.String() + source
}

// Source returns the vertex and fragment sources for a surface variant.
func Source(key surface.ProgramKey) (vertex, fragment string, err error) {
	vertName, fragName := "globe.vert", "globe.frag"
	switch {
	case key.Debug:
		vertName, fragName = "debug.vert", "debug.frag"
	case key.Pick:
		fragName = "pick.frag"
	}

	if vertex, err = Load(vertName); err != nil {
		return "", "", err
	}
	if fragment, err = Load(fragName); err != nil {
		return "", "", err
	}

	defines := key.Defines()
	return WithDefines(vertex, defines), WithDefines(fragment, defines), nil
}
