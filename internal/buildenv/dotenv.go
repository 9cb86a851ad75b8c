package buildenv

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded when present and silently skipped otherwise, in any
// directory.
const DefaultEnvFile = ".env"

var ErrEnvFileNotFound = errors.New("env file not found")

// LoadEnvFiles overlays the given dotenv files underneath vars. Values already
// present in vars always win, earlier files win over later ones. Explicitly
// named files must exist; DefaultEnvFile is optional.
func LoadEnvFiles(vars Vars, files ...string) (Vars, error) {
	merged := maps.Clone(vars)
	if merged == nil {
		merged = Vars{}
	}

	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if filepath.Base(file) == DefaultEnvFile {
					continue
				}
				return nil, fmt.Errorf("%w: %s", ErrEnvFileNotFound, file)
			}
			return nil, fmt.Errorf("failed to parse env file %s: %w", file, err)
		}

		for k, v := range values {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}

	return merged, nil
}

// FromOS reads the process environment and overlays the given env files.
func FromOS(files ...string) (Vars, error) {
	return LoadEnvFiles(FromEnviron(os.Environ()), files...)
}
