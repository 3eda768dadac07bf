package airsync

import (
	"context"
	"os"
	"slices"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ Importer = (*client)(nil)

// Importer loads upstream data into the Local Store.
type Importer interface {
	// Import runs the import job of each named entity, or of every entity
	// with a configured source when none are named.
	Import(ctx context.Context, entities ...string) ([]Imported, error)
}

// Imported counts the rows one import job wrote to the Local Store.
type Imported struct {
	Entity string `json:"entity" yaml:"entity"`
	Rows   int    `json:"rows" yaml:"rows"`
}

// Import loads upstream data for the given entities.
func (c *client) Import(ctx context.Context, entities ...string) ([]Imported, error) {
	for _, name := range entities {
		if !knownEntity(name) {
			return nil, &errors.ValidationError{Field: "entities", Value: name, Message: "entity not found"}
		}
	}
	explicit := len(entities) > 0
	logger := logging.FromContext(ctx)

	var imported []Imported
	for _, name := range Entities() {
		if explicit && !slices.Contains(entities, name) {
			continue
		}
		e, err := c.entity(ctx, name)
		if err != nil {
			return imported, err
		}
		if e.load == nil {
			if explicit {
				return imported, errors.NewConfigError(name, "no import source configured", nil)
			}
			logger.Debug().Str("entity", name).Msg("No import source configured, skipping")
			continue
		}
		n, err := e.load(logging.WithEntity(ctx, name))
		if err != nil {
			return imported, errors.NewSyncError(name, "import", err)
		}
		imported = append(imported, Imported{Entity: name, Rows: n})
	}
	return imported, nil
}

// readFile opens path and hands it to fn.
func readFile(path string, fn func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()
	return fn(f)
}
