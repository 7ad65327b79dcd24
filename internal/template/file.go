package template

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// definitionFile is the YAML shape of an on-disk template definition.
type definitionFile struct {
	Categories Categories `yaml:"categories"`
}

// LoadFile reads a template definition from a YAML file.
func LoadFile(path string) (Categories, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("template: read %s: %w", path, err)
	}
	var def definitionFile
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("template: parse %s: %w", path, err)
	}
	if len(def.Categories) == 0 {
		return nil, fmt.Errorf("template: %s defines no categories", path)
	}
	return def.Categories, nil
}

// SyncFromFile publishes the on-disk definition as a new version when
// its fingerprint differs from the latest published one. Returns the
// governing version and whether a new one was published.
func SyncFromFile(ctx context.Context, r *Registry, path string, logger *slog.Logger) (*Version, bool, error) {
	cats, err := LoadFile(path)
	if err != nil {
		return nil, false, err
	}
	before := 0
	if latest, latestErr := r.Latest(); latestErr == nil {
		before = latest.Version
	}
	v, err := r.Publish(ctx, cats)
	if err != nil {
		return nil, false, err
	}
	published := v.Version != before
	if published {
		logger.Info("template: published new version",
			slog.Int("version", v.Version),
			slog.String("checksum", v.Checksum[:12]))
	} else {
		logger.Debug("template: definition unchanged", slog.Int("version", v.Version))
	}
	return v, published, nil
}
