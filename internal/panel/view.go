// Package panel holds the view-models the UI panels draw from. Settings
// views read through epoch caches; job panels poll a coordinator.
package panel

import (
	"github.com/raoulx24/framesync/internal/epoch"
	"github.com/raoulx24/framesync/internal/settings"
)

// view pairs a settings section with an epoch cache over it.
type view[T any] struct {
	section settings.Section[T]
	cache   *epoch.Cache[T]
}

func newView[T any](s settings.Section[T]) view[T] {
	return view[T]{section: s, cache: epoch.NewCache[T](s)}
}

func (v view[T]) get() T {
	return v.cache.Read()
}

func (v view[T]) set(fn func(*T)) error {
	_, err := v.cache.Write(func() error {
		_, err := v.section.Update(fn)
		return err
	})
	return err
}

// Epoch returns the epoch of the view's snapshot.
func (v view[T]) Epoch() uint64 {
	return v.cache.Epoch()
}

// Stale reports whether the settings changed since the view last read them.
func (v view[T]) Stale() bool {
	return !v.cache.Fresh()
}

// RenderingView is the rendering settings panel.
type RenderingView struct {
	view[settings.Rendering]
}

// NewRenderingView returns a rendering view over the store.
func NewRenderingView(s *settings.Store) *RenderingView {
	return &RenderingView{view: newView(s.Rendering())}
}

func (v *RenderingView) VSync() bool          { return v.get().VSync }
func (v *RenderingView) MSAA() int            { return v.get().MSAA }
func (v *RenderingView) RenderScale() float64 { return v.get().RenderScale }
func (v *RenderingView) Wireframe() bool      { return v.get().Wireframe }

func (v *RenderingView) SetVSync(on bool) error {
	return v.set(func(r *settings.Rendering) { r.VSync = on })
}

func (v *RenderingView) SetMSAA(samples int) error {
	return v.set(func(r *settings.Rendering) { r.MSAA = samples })
}

func (v *RenderingView) SetRenderScale(scale float64) error {
	return v.set(func(r *settings.Rendering) { r.RenderScale = scale })
}

func (v *RenderingView) SetWireframe(on bool) error {
	return v.set(func(r *settings.Rendering) { r.Wireframe = on })
}

// LightingView is the lighting settings panel.
type LightingView struct {
	view[settings.Lighting]
}

// NewLightingView returns a lighting view over the store.
func NewLightingView(s *settings.Store) *LightingView {
	return &LightingView{view: newView(s.Lighting())}
}

func (v *LightingView) SunIntensity() float64 { return v.get().SunIntensity }
func (v *LightingView) SunAzimuth() float64   { return v.get().SunAzimuth }
func (v *LightingView) Ambient() float64      { return v.get().Ambient }
func (v *LightingView) Shadows() bool         { return v.get().Shadows }

func (v *LightingView) SetSunIntensity(i float64) error {
	return v.set(func(l *settings.Lighting) { l.SunIntensity = i })
}

func (v *LightingView) SetSunAzimuth(deg float64) error {
	return v.set(func(l *settings.Lighting) { l.SunAzimuth = deg })
}

func (v *LightingView) SetAmbient(a float64) error {
	return v.set(func(l *settings.Lighting) { l.Ambient = a })
}

func (v *LightingView) SetShadows(on bool) error {
	return v.set(func(l *settings.Lighting) { l.Shadows = on })
}

// GridView is the editor grid panel.
type GridView struct {
	view[settings.Grid]
}

// NewGridView returns a grid view over the store.
func NewGridView(s *settings.Store) *GridView {
	return &GridView{view: newView(s.Grid())}
}

func (v *GridView) Visible() bool     { return v.get().Visible }
func (v *GridView) Spacing() float64  { return v.get().Spacing }
func (v *GridView) Subdivisions() int { return v.get().Subdivisions }

func (v *GridView) SetVisible(on bool) error {
	return v.set(func(g *settings.Grid) { g.Visible = on })
}

func (v *GridView) SetSpacing(s float64) error {
	return v.set(func(g *settings.Grid) { g.Spacing = s })
}

func (v *GridView) SetSubdivisions(n int) error {
	return v.set(func(g *settings.Grid) { g.Subdivisions = n })
}

// PostProcessView is the post-processing panel.
type PostProcessView struct {
	view[settings.PostProcess]
}

// NewPostProcessView returns a post-process view over the store.
func NewPostProcessView(s *settings.Store) *PostProcessView {
	return &PostProcessView{view: newView(s.PostProcess())}
}

func (v *PostProcessView) Exposure() float64       { return v.get().Exposure }
func (v *PostProcessView) Bloom() bool             { return v.get().Bloom }
func (v *PostProcessView) BloomIntensity() float64 { return v.get().BloomIntensity }
func (v *PostProcessView) Tonemapper() string      { return v.get().Tonemapper }

func (v *PostProcessView) SetExposure(e float64) error {
	return v.set(func(p *settings.PostProcess) { p.Exposure = e })
}

func (v *PostProcessView) SetBloom(on bool) error {
	return v.set(func(p *settings.PostProcess) { p.Bloom = on })
}

func (v *PostProcessView) SetBloomIntensity(i float64) error {
	return v.set(func(p *settings.PostProcess) { p.BloomIntensity = i })
}

func (v *PostProcessView) SetTonemapper(name string) error {
	return v.set(func(p *settings.PostProcess) { p.Tonemapper = name })
}
