package geompack

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ResolveInput finds an input file, trying inputDir first and then the path
// as given.
func ResolveInput(path, inputDir string) (string, error) {
	if path == "" {
		return "", errors.New("file path cannot be empty")
	}
	var searched []string
	if inputDir != "" && !filepath.IsAbs(path) {
		candidate := filepath.Join(inputDir, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		searched = append(searched, candidate)
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	searched = append(searched, path)
	return "", errors.Errorf("file not found: %q (searched %v)", path, searched)
}

// ResolveOutput places relative output paths under outputDir.
func ResolveOutput(path, outputDir string) (string, error) {
	if path == "" {
		return "", errors.New("file path cannot be empty")
	}
	if outputDir == "" || filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(outputDir, path), nil
}
