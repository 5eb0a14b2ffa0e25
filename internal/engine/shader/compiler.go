package shader

import (
	"fmt"

	"github.com/Faultbox/midgard-globe/internal/engine/command"
	"github.com/Faultbox/midgard-globe/internal/engine/surface"
)

// GLCompiler builds surface programs on the current GL context.
type GLCompiler struct {
	programs []*Program
}

var _ surface.ProgramCompiler = (*GLCompiler)(nil)

// NewGLCompiler creates a compiler. A GL context must be current.
func NewGLCompiler() *GLCompiler {
	return &GLCompiler{}
}

// Compile implements surface.ProgramCompiler.
func (c *GLCompiler) Compile(key surface.ProgramKey) (command.Program, error) {
	vert, frag, err := Source(key)
	if err != nil {
		return nil, err
	}

	id, err := CompileProgram(vert, frag)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", key, err)
	}

	p := &Program{id: id, locations: make(map[string]int32)}
	c.programs = append(c.programs, p)
	return p, nil
}

// Close deletes every program built by the compiler.
func (c *GLCompiler) Close() {
	for _, p := range c.programs {
		p.Delete()
	}
	c.programs = nil
}
