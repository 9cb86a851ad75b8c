package assets

type Config struct {
	// Working directory the build runs in, empty for the process directory
	WorkingDir string
	// Path to metafile (relative to the output directory)
	MetafilePath string
	// Whether to enable source maps
	SourceMap bool
	// Whether to write .gz siblings of text outputs after a successful build
	Precompress bool
	// Additional directories searched by the style compiler for imports
	IncludePaths []string
	// Title of rendered pages
	Title string
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		MetafilePath: "meta.json",
		SourceMap:    false,
		IncludePaths: []string{"node_modules"},
		Title:        "Backpack",
	}
}
