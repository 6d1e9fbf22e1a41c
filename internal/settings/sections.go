package settings

import (
	"fmt"

	"github.com/hashicorp/go-memdb"
	"github.com/raoulx24/framesync/internal/config"
	"github.com/raoulx24/framesync/internal/epoch"
)

// Section names.
const (
	SectionRendering   = "rendering"
	SectionLighting    = "lighting"
	SectionGrid        = "grid"
	SectionPostProcess = "postprocess"
)

// Rendering holds renderer settings.
type Rendering struct {
	VSync       bool
	MSAA        int
	RenderScale float64
	Wireframe   bool
}

// Lighting holds scene lighting settings.
type Lighting struct {
	SunIntensity float64
	SunAzimuth   float64
	Ambient      float64
	Shadows      bool
}

// Grid holds editor grid settings.
type Grid struct {
	Visible      bool
	Spacing      float64
	Subdivisions int
}

// PostProcess holds post-processing settings.
type PostProcess struct {
	Exposure       float64
	Bloom          bool
	BloomIntensity float64
	Tonemapper     string
}

// Values is the full set of sections.
type Values struct {
	Rendering   Rendering
	Lighting    Lighting
	Grid        Grid
	PostProcess PostProcess
}

func (v Values) sections() map[string]any {
	return map[string]any{
		SectionRendering:   v.Rendering,
		SectionLighting:    v.Lighting,
		SectionGrid:        v.Grid,
		SectionPostProcess: v.PostProcess,
	}
}

// FromConfig converts the settings block of the configuration.
func FromConfig(cfg config.SettingsConfig) Values {
	return Values{
		Rendering: Rendering{
			VSync:       cfg.Rendering.VSync,
			MSAA:        cfg.Rendering.MSAA,
			RenderScale: cfg.Rendering.RenderScale,
			Wireframe:   cfg.Rendering.Wireframe,
		},
		Lighting: Lighting{
			SunIntensity: cfg.Lighting.SunIntensity,
			SunAzimuth:   cfg.Lighting.SunAzimuth,
			Ambient:      cfg.Lighting.Ambient,
			Shadows:      cfg.Lighting.Shadows,
		},
		Grid: Grid{
			Visible:      cfg.Grid.Visible,
			Spacing:      cfg.Grid.Spacing,
			Subdivisions: cfg.Grid.Subdivisions,
		},
		PostProcess: PostProcess{
			Exposure:       cfg.PostProcess.Exposure,
			Bloom:          cfg.PostProcess.Bloom,
			BloomIntensity: cfg.PostProcess.BloomIntensity,
			Tonemapper:     cfg.PostProcess.Tonemapper,
		},
	}
}

// Section is a typed view of one settings section. It satisfies
// epoch.Source so it can back an epoch.Cache.
type Section[T any] struct {
	store *Store
	name  string
}

var _ epoch.Source[Rendering] = Section[Rendering]{}

// Rendering returns the rendering section.
func (s *Store) Rendering() Section[Rendering] {
	return Section[Rendering]{store: s, name: SectionRendering}
}

// Lighting returns the lighting section.
func (s *Store) Lighting() Section[Lighting] {
	return Section[Lighting]{store: s, name: SectionLighting}
}

// Grid returns the grid section.
func (s *Store) Grid() Section[Grid] {
	return Section[Grid]{store: s, name: SectionGrid}
}

// PostProcess returns the post-process section.
func (s *Store) PostProcess() Section[PostProcess] {
	return Section[PostProcess]{store: s, name: SectionPostProcess}
}

// Name returns the section name.
func (s Section[T]) Name() string {
	return s.name
}

// Epoch returns the store epoch.
func (s Section[T]) Epoch() uint64 {
	return s.store.Epoch()
}

// Load returns the section value and the epoch it was read at. A failed
// lookup is logged and yields the zero value; use Get to handle it.
func (s Section[T]) Load() (T, uint64) {
	v, idx, err := s.Get()
	if err != nil {
		s.store.log.Error("settings: loading section failed", "section", s.name, "error", err)
	}
	return v, idx
}

// Get is Load with the lookup error returned.
func (s Section[T]) Get() (T, uint64, error) {
	tx := s.store.db.Txn(false)
	defer tx.Abort()

	v, err := lookup[T](tx, s.name)
	return v, maxIndex(tx, tableSections), err
}

// Set replaces the section value and returns the new epoch.
func (s Section[T]) Set(v T) (uint64, error) {
	return s.Update(func(cur *T) { *cur = v })
}

// Update applies fn to the current value in a single write transaction and
// returns the new epoch.
func (s Section[T]) Update(fn func(*T)) (uint64, error) {
	tx := s.store.db.Txn(true)
	defer tx.Abort()

	cur, err := lookup[T](tx, s.name)
	if err != nil {
		return 0, err
	}
	fn(&cur)

	idx := epoch.Next(maxIndex(tx, tableSections))
	if err := insertSection(tx, s.name, cur, idx); err != nil {
		return 0, err
	}

	tx.Commit()
	return idx, nil
}

func insertSection(tx *memdb.Txn, name string, v any, idx uint64) error {
	if err := tx.Insert(tableSections, &section{Name: name, Value: v, Index: idx}); err != nil {
		return fmt.Errorf("settings: inserting %s: %w", name, err)
	}
	if err := updateIndex(tx, tableSections, idx); err != nil {
		return fmt.Errorf("settings: updating index: %w", err)
	}
	return nil
}
