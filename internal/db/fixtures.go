// Package db loads the seed data the in-memory stores start from. Nothing
// is written back; every process start begins from the same fixtures.
package db

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	"github.com/lalith-99/visaflow/internal/models"
	"go.uber.org/zap"
)

//go:embed fixtures/*.json
var embedded embed.FS

const (
	clientsFile      = "clients.json"
	applicationsFile = "applications.json"
)

// Fixtures is the seed data for both entity stores.
type Fixtures struct {
	Clients      []models.Client
	Applications []models.Application
}

// Load reads the fixtures from dir, or from the copy compiled into the
// binary when dir is empty.
func Load(ctx context.Context, dir string, logger *zap.Logger) (*Fixtures, error) {
	var fsys fs.FS
	source := dir
	if dir == "" {
		sub, err := fs.Sub(embedded, "fixtures")
		if err != nil {
			return nil, fmt.Errorf("open embedded fixtures: %w", err)
		}
		fsys = sub
		source = "embedded"
	} else {
		fsys = os.DirFS(dir)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := &Fixtures{}
	if err := decode(fsys, clientsFile, &f.Clients); err != nil {
		return nil, err
	}
	if err := decode(fsys, applicationsFile, &f.Applications); err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("fixtures from %s: %w", source, err)
	}

	logger.Info("fixtures loaded",
		zap.String("source", source),
		zap.Int("clients", len(f.Clients)),
		zap.Int("applications", len(f.Applications)),
	)
	return f, nil
}

func decode(fsys fs.FS, name string, v any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// validate rejects seed data the stores could not serve consistently:
// non-positive or duplicate ids and duplicate portal links.
func (f *Fixtures) validate() error {
	clientIDs := make(map[int64]bool, len(f.Clients))
	links := make(map[string]bool, len(f.Clients))
	for _, c := range f.Clients {
		if c.ID <= 0 || clientIDs[c.ID] {
			return fmt.Errorf("client id %d is not a unique positive integer", c.ID)
		}
		clientIDs[c.ID] = true
		if c.PortalLink == "" || links[c.PortalLink] {
			return fmt.Errorf("client %d: portal link %q is empty or duplicated", c.ID, c.PortalLink)
		}
		links[c.PortalLink] = true
	}

	appIDs := make(map[int64]bool, len(f.Applications))
	for _, a := range f.Applications {
		if a.ID <= 0 || appIDs[a.ID] {
			return fmt.Errorf("application id %d is not a unique positive integer", a.ID)
		}
		appIDs[a.ID] = true
	}
	return nil
}
