package blender

import (
	"os/exec"

	homedir "github.com/mitchellh/go-homedir"
)

// DefaultSearchPaths is the order in which Blender is looked for when no
// executable is configured.
var DefaultSearchPaths = []string{
	"blender",
	"/Applications/Blender.app/Contents/MacOS/Blender",
	`C:\Program Files\Blender Foundation\Blender\blender.exe`,
	"/usr/bin/blender",
	"/usr/local/bin/blender",
}

// Locate returns the first candidate that resolves to an executable file.
// Bare names are looked up on PATH and a leading ~ is expanded.
func Locate(candidates []string) (string, error) {
	searched := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		p, err := homedir.Expand(c)
		if err != nil {
			p = c
		}
		searched = append(searched, p)
		if found, err := exec.LookPath(p); err == nil {
			return found, nil
		}
	}
	return "", &ToolNotFoundError{Searched: searched}
}
