package preset

import (
	"errors"
	"fmt"
)

// Built-in preset identifiers.
const (
	Rap     = "rap"
	Pop     = "pop"
	Podcast = "podcast"
	RnB     = "rnb"
	Rock    = "rock"

	// DefaultID is returned by Catalog.Get for unknown identifiers.
	DefaultID = Rap
)

var errDuplicatePreset = errors.New("preset: duplicate id")

// Entry is one row of Catalog.List.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Catalog is an ordered, read-only set of presets with a fallback entry.
type Catalog struct {
	order     []string
	byID      map[string]Config
	defaultID string
}

// NewCatalog validates configs and builds a catalog. Declaration order is
// kept for List. defaultID must name one of the configs.
func NewCatalog(defaultID string, configs ...Config) (*Catalog, error) {
	c := &Catalog{
		byID:      make(map[string]Config, len(configs)),
		defaultID: defaultID,
	}

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		if _, exists := c.byID[cfg.ID]; exists {
			return nil, fmt.Errorf("%w: %s", errDuplicatePreset, cfg.ID)
		}

		c.byID[cfg.ID] = cfg
		c.order = append(c.order, cfg.ID)
	}

	if _, ok := c.byID[defaultID]; !ok {
		return nil, fmt.Errorf("preset: default %q not in catalog", defaultID)
	}

	return c, nil
}

// Default returns the catalog of built-in genre presets.
func Default() *Catalog {
	c, err := NewCatalog(DefaultID, builtin()...)
	if err != nil {
		panic("preset catalog: " + err.Error())
	}

	return c
}

// Get returns the preset for id, or the default preset when id is
// unknown. Use Lookup to detect the fallback.
func (c *Catalog) Get(id string) Config {
	if cfg, ok := c.byID[id]; ok {
		return cfg
	}

	return c.byID[c.defaultID]
}

// Lookup returns the preset for id and whether it exists.
func (c *Catalog) Lookup(id string) (Config, bool) {
	cfg, ok := c.byID[id]
	return cfg, ok
}

// List returns id and display name of every preset in declaration order.
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Entry{ID: id, Name: c.byID[id].Name})
	}

	return out
}

// DefaultID returns the fallback preset id.
func (c *Catalog) DefaultID() string { return c.defaultID }

func builtin() []Config {
	return []Config{
		{
			ID:         Rap,
			Name:       "Rap/Trap",
			EQ:         defaultEQ(-2, 3, 4),
			Compressor: Compressor{ThresholdDB: -24, KneeDB: 10, Ratio: 6, AttackSeconds: 0.003, ReleaseSeconds: 0.1},
			DeEsser:    DeEsser{FrequencyHz: 7000, ThresholdDB: -15},
			Effects:    Effects{Reverb: 0.1, Delay: 0, Saturation: 0.2},
		},
		{
			ID:         Pop,
			Name:       "Pop/Singing",
			EQ:         defaultEQ(0, 2, 5),
			Compressor: Compressor{ThresholdDB: -20, KneeDB: 6, Ratio: 4, AttackSeconds: 0.005, ReleaseSeconds: 0.15},
			DeEsser:    DeEsser{FrequencyHz: 6500, ThresholdDB: -12},
			Effects:    Effects{Reverb: 0.25, Delay: 0.15, Saturation: 0.15},
		},
		{
			ID:         Podcast,
			Name:       "Podcast",
			EQ:         defaultEQ(-4, 4, 2),
			Compressor: Compressor{ThresholdDB: -18, KneeDB: 12, Ratio: 5, AttackSeconds: 0.01, ReleaseSeconds: 0.2},
			DeEsser:    DeEsser{FrequencyHz: 8000, ThresholdDB: -10},
			Effects:    Effects{Reverb: 0, Delay: 0, Saturation: 0.1},
		},
		{
			ID:         RnB,
			Name:       "R&B/Soul",
			EQ:         defaultEQ(2, 1, 3),
			Compressor: Compressor{ThresholdDB: -22, KneeDB: 8, Ratio: 3.5, AttackSeconds: 0.01, ReleaseSeconds: 0.25},
			DeEsser:    DeEsser{FrequencyHz: 6000, ThresholdDB: -14},
			Effects:    Effects{Reverb: 0.3, Delay: 0.2, Saturation: 0.25},
		},
		{
			ID:         Rock,
			Name:       "Rock/Metal",
			EQ:         defaultEQ(-1, 5, 6),
			Compressor: Compressor{ThresholdDB: -16, KneeDB: 4, Ratio: 8, AttackSeconds: 0.001, ReleaseSeconds: 0.05},
			DeEsser:    DeEsser{FrequencyHz: 7500, ThresholdDB: -18},
			Effects:    Effects{Reverb: 0.15, Delay: 0.1, Saturation: 0.4},
		},
	}
}
