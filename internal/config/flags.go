package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagWidth     = flag.Int("width", 0, "Window width")
	flagHeight    = flag.Int("height", 0, "Window height")
	flagMode      = flag.String("mode", "", "Scene mode: 3d, 2d or columbus")
	flagWireframe = flag.Bool("wireframe", false, "Draw the globe as wireframe")
	flagWorkers   = flag.Int("workers", 0, "Terrain mesh builder workers")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagMode != "" {
		cfg.Globe.SceneMode = *flagMode
	}
	if *flagWireframe {
		cfg.Globe.Wireframe = true
	}
	if *flagWorkers > 0 {
		cfg.Terrain.Workers = *flagWorkers
	}
}
