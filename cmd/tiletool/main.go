// tiletool is a CLI utility for inspecting globe terrain tiles and shader
// variants without opening a window.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/paulmach/orb/maptile"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-globe/internal/engine/quantize"
	"github.com/Faultbox/midgard-globe/internal/engine/shader"
	"github.com/Faultbox/midgard-globe/internal/engine/surface"
	"github.com/Faultbox/midgard-globe/internal/engine/terrain"
	"github.com/Faultbox/midgard-globe/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "encode", "mesh":
		cmdEncode(args)
	case "layout":
		cmdLayout(args)
	case "roundtrip", "rt":
		cmdRoundTrip(args)
	case "shader":
		cmdShader(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tiletool - globe terrain tile utility

Usage:
  tiletool <command> [options]

Commands:
  encode [tile options] [-yaml]      Build and encode a procedural tile
  layout [-mode none|bits12] [-normals]
                                     Show the vertex attribute layout
  roundtrip [tile options]           Encode a tile and report decode error
  shader [-textures N] [-mode M] [-pick] [-fog] [-lighting] [-mercator] [-frag]
                                     Print a surface shader variant

Tile options:
  -z, -x, -y      Tile coordinates (web-mercator)
  -size N         Heightmap samples per edge
  -amplitude A    Procedural terrain amplitude in meters
  -normals        Encode vertex normals

Examples:
  tiletool encode -z 12 -x 2200 -y 1343
  tiletool layout -mode bits12 -normals
  tiletool roundtrip -z 3 -size 33
  tiletool shader -textures 2 -fog -frag`)
}

type tileFlags struct {
	z, x, y   *uint
	size      *int
	amplitude *float64
	normals   *bool
}

func addTileFlags(fs *flag.FlagSet) tileFlags {
	return tileFlags{
		z:         fs.Uint("z", 2, "Zoom level"),
		x:         fs.Uint("x", 1, "Tile column"),
		y:         fs.Uint("y", 1, "Tile row"),
		size:      fs.Int("size", 65, "Heightmap samples per edge"),
		amplitude: fs.Float64("amplitude", 4000, "Terrain amplitude in meters"),
		normals:   fs.Bool("normals", false, "Encode vertex normals"),
	}
}

func (f tileFlags) key() (maptile.Tile, error) {
	z := maptile.Zoom(*f.z)
	if z > 30 {
		return maptile.Tile{}, fmt.Errorf("zoom %d out of range", z)
	}
	n := uint32(1) << z
	if uint32(*f.x) >= n || uint32(*f.y) >= n {
		return maptile.Tile{}, fmt.Errorf("tile %d/%d/%d outside the %dx%d grid", z, *f.x, *f.y, n, n)
	}
	return maptile.New(uint32(*f.x), uint32(*f.y), z), nil
}

func (f tileFlags) build() (maptile.Tile, *terrain.RawMesh, *terrain.Mesh, error) {
	key, err := f.key()
	if err != nil {
		return key, nil, nil, err
	}
	provider := terrain.NewProceduralProvider(math.WGS84, *f.size, *f.amplitude, *f.normals)
	hm, err := provider.Heightmap(key)
	if err != nil {
		return key, nil, nil, err
	}
	raw, err := hm.Tessellate(math.WGS84, terrain.TessellateOptions{Normals: *f.normals})
	if err != nil {
		return key, nil, nil, err
	}
	mesh, err := terrain.BuildMesh(raw, math.WGS84)
	if err != nil {
		return key, nil, nil, err
	}
	return key, raw, mesh, nil
}

type meshSummary struct {
	Tile           string     `yaml:"tile"`
	Quantization   string     `yaml:"quantization"`
	Stride         int        `yaml:"stride"`
	Vertices       int        `yaml:"vertices"`
	Triangles      int        `yaml:"triangles"`
	MinimumHeight  float64    `yaml:"minimum_height"`
	MaximumHeight  float64    `yaml:"maximum_height"`
	Center         [3]float64 `yaml:"center"`
	SphereRadius   float64    `yaml:"bounding_sphere_radius"`
	HorizonCulling bool       `yaml:"horizon_culling"`
	Normals        bool       `yaml:"normals"`
}

func cmdEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	tf := addTileFlags(fs)
	asYAML := fs.Bool("yaml", false, "Print as YAML")
	fs.Parse(args)

	key, _, mesh, err := tf.build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s := meshSummary{
		Tile:           fmt.Sprintf("%d/%d/%d", key.Z, key.X, key.Y),
		Quantization:   mesh.Encoding.Mode.String(),
		Stride:         mesh.Encoding.Stride(),
		Vertices:       mesh.VertexCount(),
		Triangles:      len(mesh.Indices) / 3,
		MinimumHeight:  mesh.MinimumHeight,
		MaximumHeight:  mesh.MaximumHeight,
		Center:         [3]float64(mesh.Center),
		SphereRadius:   mesh.BoundingSphere.Radius,
		HorizonCulling: mesh.OccludeePointInScaledSpace != nil,
		Normals:        mesh.Encoding.HasVertexNormals,
	}

	if *asYAML {
		out, err := yaml.Marshal(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(out))
		return
	}

	fmt.Printf("Tile:          %s\n", s.Tile)
	fmt.Printf("Quantization:  %s (%d floats/vertex)\n", s.Quantization, s.Stride)
	fmt.Printf("Vertices:      %d\n", s.Vertices)
	fmt.Printf("Triangles:     %d\n", s.Triangles)
	fmt.Printf("Heights:       %.2f .. %.2f m\n", s.MinimumHeight, s.MaximumHeight)
	fmt.Printf("Center:        %.1f %.1f %.1f\n", s.Center[0], s.Center[1], s.Center[2])
	fmt.Printf("Sphere radius: %.1f m\n", s.SphereRadius)
	fmt.Printf("Horizon point: %v\n", s.HorizonCulling)
}

func cmdLayout(args []string) {
	fs := flag.NewFlagSet("layout", flag.ExitOnError)
	modeName := fs.String("mode", "none", "Quantization: none or bits12")
	normals := fs.Bool("normals", false, "Include encoded normals")
	fs.Parse(args)

	mode, err := parseMode(*modeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	layout := quantize.LayoutFor(mode, *normals)
	fmt.Printf("Mode:   %s\n", mode)
	fmt.Printf("Stride: %d bytes\n", layout.ByteStride)
	fmt.Println()
	fmt.Printf("  %-8s %-32s %-10s %s\n", "LOCATION", "NAME", "COMPONENTS", "OFFSET")
	for _, a := range layout.Attributes {
		fmt.Printf("  %-8d %-32s %-10d %d\n", a.Location, a.Name, a.Components, a.Offset)
	}
}

func cmdRoundTrip(args []string) {
	fs := flag.NewFlagSet("roundtrip", flag.ExitOnError)
	tf := addTileFlags(fs)
	fs.Parse(args)

	key, raw, mesh, err := tf.build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var maxErr, sumErr float64
	for i, v := range raw.Vertices {
		d := mesh.Encoding.DecodePosition(mesh.Vertices, i).Sub(v.Position).Len()
		maxErr = max(maxErr, d)
		sumErr += d
	}

	fmt.Printf("Tile:       %d/%d/%d\n", key.Z, key.X, key.Y)
	fmt.Printf("Mode:       %s\n", mesh.Encoding.Mode)
	fmt.Printf("Vertices:   %d\n", len(raw.Vertices))
	fmt.Printf("Max error:  %.4f m\n", maxErr)
	if len(raw.Vertices) > 0 {
		fmt.Printf("Mean error: %.4f m\n", sumErr/float64(len(raw.Vertices)))
	}
}

func cmdShader(args []string) {
	fs := flag.NewFlagSet("shader", flag.ExitOnError)
	textures := fs.Int("textures", 1, "Texture count")
	modeName := fs.String("mode", "none", "Quantization: none or bits12")
	pick := fs.Bool("pick", false, "Depth-only pick variant")
	fog := fs.Bool("fog", false, "Enable fog")
	lighting := fs.Bool("lighting", false, "Enable lighting")
	mercator := fs.Bool("mercator", false, "Use web-mercator texture coordinates")
	frag := fs.Bool("frag", false, "Print the fragment shader instead of the vertex shader")
	fs.Parse(args)

	mode, err := parseMode(*modeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	key := surface.ProgramKey{
		TextureCount:             *textures,
		EnableFog:                *fog,
		EnableLighting:           *lighting,
		UseWebMercatorProjection: *mercator,
		Quantization:             mode,
	}
	if *pick {
		key = surface.PickKey(mode, *mercator)
	}

	vertex, fragment, err := shader.Source(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "// %s\n", key)
	if *frag {
		fmt.Print(fragment)
	} else {
		fmt.Print(vertex)
	}
}

func parseMode(name string) (quantize.Mode, error) {
	switch name {
	case "none", "":
		return quantize.None, nil
	case "bits12":
		return quantize.Bits12, nil
	default:
		return quantize.None, fmt.Errorf("unknown quantization %q", name)
	}
}
