// Package catalog resolves which parts make up each tradable set. The
// composition is static market data, so it is cached on disk and rebuilt
// only when the cache goes stale.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"primeflip/internal/logger"
	"primeflip/internal/wfm"
)

const cacheFile = "catalog.json"

// cacheMaxAge bounds how long a disk snapshot is trusted. New sets enter
// the game rarely, so a week is plenty.
const cacheMaxAge = 7 * 24 * time.Hour

// SetSource is the slice of the market client the catalog builder needs.
type SetSource interface {
	Items(ctx context.Context) ([]wfm.Item, error)
	ItemDetail(ctx context.Context, urlName string) (wfm.ItemDetail, error)
}

// PartRequirement is one component a set needs, with its quantity.
type PartRequirement struct {
	PartID   string `json:"part_id"`
	URLName  string `json:"url_name"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// SetDefinition is the full composition of one tradable set.
type SetDefinition struct {
	SetID   string            `json:"set_id"`
	URLName string            `json:"url_name"`
	Name    string            `json:"name"`
	Parts   []PartRequirement `json:"parts"`
}

// Catalog holds every known set composition.
type Catalog struct {
	BuiltAt time.Time       `json:"built_at"`
	Sets    []SetDefinition `json:"sets"`

	byID map[string]*SetDefinition
}

// Load returns the cached catalog when fresh, otherwise rebuilds it from
// the market index and rewrites the cache. A corrupt cache file is treated
// as absent, not fatal.
func Load(ctx context.Context, dataDir string, src SetSource) (*Catalog, error) {
	path := filepath.Join(dataDir, cacheFile)

	if c, err := readCache(path); err == nil {
		if time.Since(c.BuiltAt) < cacheMaxAge {
			logger.Info("Catalog", fmt.Sprintf("Loaded %d sets from cache", len(c.Sets)))
			return c, nil
		}
		logger.Info("Catalog", "Cache stale, rebuilding from market index")
	}

	c, err := build(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := writeCache(path, c); err != nil {
		logger.Warn("Catalog", fmt.Sprintf("Cache write failed: %v", err))
	}
	return c, nil
}

// build walks the market index and expands every *_set item.
func build(ctx context.Context, src SetSource) (*Catalog, error) {
	items, err := src.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch item index: %w", err)
	}

	var candidates []wfm.Item
	for _, it := range items {
		if strings.HasSuffix(it.URLName, "_set") {
			candidates = append(candidates, it)
		}
	}
	logger.Info("Catalog", fmt.Sprintf("Expanding %d set candidates (%d items total)", len(candidates), len(items)))

	c := &Catalog{BuiltAt: time.Now().UTC()}
	for i, it := range candidates {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		detail, err := src.ItemDetail(ctx, it.URLName)
		if err != nil {
			logger.Warn("Catalog", fmt.Sprintf("Skipping %s: %v", it.URLName, err))
			continue
		}
		def := defFromDetail(it, detail)
		if len(def.Parts) == 0 {
			continue
		}
		c.Sets = append(c.Sets, def)
		if (i+1)%25 == 0 {
			logger.Info("Catalog", fmt.Sprintf("Expanded %d/%d sets", i+1, len(candidates)))
		}
	}

	sort.Slice(c.Sets, func(i, j int) bool { return c.Sets[i].Name < c.Sets[j].Name })
	c.index()
	logger.Success("Catalog", fmt.Sprintf("Built %d sets (%d parts)", len(c.Sets), c.PartCount()))
	return c, nil
}

// defFromDetail splits a set listing into the set root and its parts.
func defFromDetail(it wfm.Item, detail wfm.ItemDetail) SetDefinition {
	def := SetDefinition{SetID: detail.ID, URLName: it.URLName, Name: it.ItemName}
	if def.SetID == "" {
		def.SetID = it.ID
	}
	for _, member := range detail.ItemsInSet {
		if member.SetRoot || member.ID == def.SetID {
			continue
		}
		qty := member.QuantityForSet
		if qty < 1 {
			qty = 1
		}
		name := member.En.ItemName
		if name == "" {
			name = member.URLName
		}
		def.Parts = append(def.Parts, PartRequirement{
			PartID:   member.ID,
			URLName:  member.URLName,
			Name:     name,
			Quantity: qty,
		})
	}
	sort.Slice(def.Parts, func(i, j int) bool { return def.Parts[i].Name < def.Parts[j].Name })
	return def
}

// Get looks up a set definition by its item ID.
func (c *Catalog) Get(setID string) (*SetDefinition, bool) {
	def, ok := c.byID[setID]
	return def, ok
}

// Size returns the number of sets.
func (c *Catalog) Size() int { return len(c.Sets) }

// PartCount returns the number of part requirements across all sets.
func (c *Catalog) PartCount() int {
	n := 0
	for _, s := range c.Sets {
		n += len(s.Parts)
	}
	return n
}

func (c *Catalog) index() {
	c.byID = make(map[string]*SetDefinition, len(c.Sets))
	for i := range c.Sets {
		c.byID[c.Sets[i].SetID] = &c.Sets[i]
	}
}

func readCache(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: parse cache: %w", err)
	}
	if len(c.Sets) == 0 {
		return nil, fmt.Errorf("catalog: cache is empty")
	}
	c.index()
	return &c, nil
}

// writeCache replaces the cache atomically so a crash mid-write never
// leaves a truncated file behind.
func writeCache(path string, c *Catalog) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
