// Package banner holds the banner template registry and the markup renderer.
// Templates are an externally supplied configuration table; the registry is
// built once at startup and never mutated, so it is safe for concurrent use.
package banner

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/adxhq/campaignd/internal/rtb"
)

// Template describes one renderable banner variant. The markup pattern may
// reference the substitution tokens {{source}}, {{impression_trackers}} and
// {{click_trackers}}.
type Template struct {
	Name       string   `json:"name"`
	Type       int      `json:"type"`
	API        []int    `json:"api,omitempty"`
	Mimes      []string `json:"mimes"`
	Markup     string   `json:"markup"`
	FullScreen bool     `json:"full_screen"`
}

// Substitutions carries the values rendered into a template's markup.
type Substitutions struct {
	Source             string
	ImpressionTrackers []string
	ClickTrackers      []string
}

// Registry is an immutable set of templates keyed by name.
type Registry struct {
	templates []Template
	byName    map[string]int
}

// NewRegistry builds a registry from a template table. Later entries with a
// duplicate name shadow earlier ones.
func NewRegistry(templates []Template) *Registry {
	r := &Registry{
		templates: append([]Template(nil), templates...),
		byName:    make(map[string]int, len(templates)),
	}
	for i, t := range r.templates {
		r.byName[t.Name] = i
	}
	return r
}

// LoadRegistry reads a JSON template table from disk.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read banner templates: %w", err)
	}
	var templates []Template
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("parse banner templates: %w", err)
	}
	return NewRegistry(templates), nil
}

// Resolve looks up the template for an ad format. The key is
// "image_<format>", suffixed "_fullscreen" for fullscreen placements.
func (r *Registry) Resolve(format string, fullscreen bool) (Template, bool) {
	name := "image_" + format
	if fullscreen {
		name += "_fullscreen"
	}
	i, ok := r.byName[name]
	if !ok {
		return Template{}, false
	}
	return r.templates[i], true
}

// All returns a copy of every registered template, in registration order.
func (r *Registry) All() []Template {
	return append([]Template(nil), r.templates...)
}

// Len reports the number of registered templates.
func (r *Registry) Len() int {
	return len(r.templates)
}

// Render substitutes the tokens in a template's markup. Tracker lists are
// rendered as JSON arrays so the markup can embed them directly.
func Render(t Template, sub Substitutions) string {
	rep := strings.NewReplacer(
		"{{source}}", sub.Source,
		"{{impression_trackers}}", jsonList(sub.ImpressionTrackers),
		"{{click_trackers}}", jsonList(sub.ClickTrackers),
	)
	return rep.Replace(t.Markup)
}

func jsonList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DefaultTemplates is the built-in template table used when no external one
// is configured.
func DefaultTemplates() []Template {
	return []Template{
		{
			Name:   "image_banner",
			Type:   rtb.BannerTypeJavaScript,
			Mimes:  []string{"application/javascript"},
			Markup: `var imp={{impression_trackers}};var clk={{click_trackers}};document.write('<img src="{{source}}">');`,
		},
		{
			Name:       "image_banner_fullscreen",
			Type:       rtb.BannerTypeJavaScript,
			API:        []int{3, 5},
			Mimes:      []string{"application/javascript"},
			Markup:     `var imp={{impression_trackers}};var clk={{click_trackers}};document.write('<img class="fs" src="{{source}}">');`,
			FullScreen: true,
		},
		{
			Name:   "image_mrec",
			Type:   rtb.BannerTypeJavaScript,
			Mimes:  []string{"application/javascript"},
			Markup: `var imp={{impression_trackers}};var clk={{click_trackers}};document.write('<img width="300" height="250" src="{{source}}">');`,
		},
		{
			Name:       "image_interstitial_fullscreen",
			Type:       rtb.BannerTypeJavaScript,
			API:        []int{3, 5},
			Mimes:      []string{"application/javascript"},
			Markup:     `var imp={{impression_trackers}};var clk={{click_trackers}};document.write('<img class="interstitial" src="{{source}}">');`,
			FullScreen: true,
		},
	}
}
