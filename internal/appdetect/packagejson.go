package appdetect

import (
	"encoding/json"
	"os"
)

type packagesJson struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func readPackagesJson(path string) (*packagesJson, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pkg packagesJson
	if err := json.Unmarshal(contents, &pkg); err != nil {
		return nil, err
	}

	return &pkg, nil
}

func (p *packagesJson) hasDependency(name string) bool {
	if _, ok := p.Dependencies[name]; ok {
		return true
	}
	_, ok := p.DevDependencies[name]
	return ok
}

// hasCrossPlatformMarker reports whether the package depends on a
// cross-platform JS runtime, which excludes it from plain web classification.
func (p *packagesJson) hasCrossPlatformMarker() bool {
	return p.hasDependency("react-native") || p.hasDependency("expo")
}
