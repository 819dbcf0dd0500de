// Package render is the default domain.Renderer: localized view trees looked
// up by dotted keys and interpolated with text/template.
package render

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/aretw0/parley/pkg/domain"
	"golang.org/x/text/language"
)

var _ domain.Renderer = (*Renderer)(nil)

// Picker chooses one variant when a view lists several.
type Picker func(variants []string) string

// Random picks a variant uniformly.
func Random(variants []string) string {
	return variants[rand.IntN(len(variants))]
}

// First always picks the first variant.
func First(variants []string) string {
	return variants[0]
}

// Renderer resolves view keys for the event's locale.
type Renderer struct {
	views         Views
	defaultLocale string
	locales       []string
	matcher       language.Matcher
	pick          Picker
	funcs         template.FuncMap

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDefaultLocale sets the locale used when the request has none or its
// locale lacks a key. Defaults to the first locale in sorted order.
func WithDefaultLocale(locale string) Option {
	return func(r *Renderer) {
		r.defaultLocale = locale
	}
}

// WithPicker sets how variants are chosen. Defaults to Random.
func WithPicker(p Picker) Option {
	return func(r *Renderer) {
		if p != nil {
			r.pick = p
		}
	}
}

// WithFuncs adds template functions.
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *Renderer) {
		for k, v := range funcs {
			r.funcs[k] = v
		}
	}
}

// New creates a Renderer over views.
func New(views Views, opts ...Option) (*Renderer, error) {
	if len(views) == 0 {
		return nil, &domain.ConfigurationError{Reason: "renderer has no views"}
	}
	r := &Renderer{
		views: views,
		pick:  Random,
		funcs: template.FuncMap{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
		},
		cache: make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(r)
	}

	for locale := range views {
		r.locales = append(r.locales, locale)
	}
	sort.Strings(r.locales)
	if r.defaultLocale == "" {
		r.defaultLocale = r.locales[0]
	}
	if _, ok := views[r.defaultLocale]; !ok {
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("default locale %q has no views", r.defaultLocale)}
	}

	// The default locale goes first so unmatched requests fall back to it.
	tags := []language.Tag{language.Make(r.defaultLocale)}
	ordered := []string{r.defaultLocale}
	for _, l := range r.locales {
		if l != r.defaultLocale {
			tags = append(tags, language.Make(l))
			ordered = append(ordered, l)
		}
	}
	r.locales = ordered
	r.matcher = language.NewMatcher(tags)
	return r, nil
}

// Locales lists the available locales, default first.
func (r *Renderer) Locales() []string {
	return append([]string(nil), r.locales...)
}

// Locale returns the view locale chosen for a request locale.
func (r *Renderer) Locale(requested string) string {
	if requested == "" {
		return r.defaultLocale
	}
	_, idx, conf := r.matcher.Match(language.Make(requested))
	if conf == language.No {
		return r.defaultLocale
	}
	return r.locales[idx]
}

// RenderPath renders key for ev. The template sees .model (the serialized
// model), .params (intent params), .locale and .event.
func (r *Renderer) RenderPath(ctx context.Context, key string, ev *domain.Event) (string, error) {
	locale := r.Locale(ev.Locale())
	raw, found := lookup(r.views[locale], key)
	if !found && locale != r.defaultLocale {
		locale = r.defaultLocale
		raw, found = lookup(r.views[locale], key)
	}
	if !found {
		return "", fmt.Errorf("%w: %q (locale %q)", domain.ErrMissingView, key, ev.Locale())
	}

	src, err := r.leaf(key, raw)
	if err != nil {
		return "", err
	}

	data, err := templateData(ctx, ev, locale)
	if err != nil {
		return "", err
	}
	tmpl, err := r.template(src)
	if err != nil {
		return "", fmt.Errorf("view %q: %w", key, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("view %q: %w", key, err)
	}
	return buf.String(), nil
}

func (r *Renderer) leaf(key string, raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []any:
		variants := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				variants = append(variants, s)
			}
		}
		if len(variants) == 0 {
			return "", fmt.Errorf("view %q has no string variants", key)
		}
		return r.pick(variants), nil
	default:
		return "", fmt.Errorf("view %q is a %T, not a string", key, raw)
	}
}

func (r *Renderer) template(src string) (*template.Template, error) {
	r.mu.RLock()
	t, ok := r.cache[src]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := template.New("view").Funcs(r.funcs).Option("missingkey=zero").Parse(src)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cache[src] = t
	r.mu.Unlock()
	return t, nil
}

func templateData(ctx context.Context, ev *domain.Event, locale string) (map[string]any, error) {
	data := map[string]any{
		"locale": locale,
		"event":  ev,
		"params": map[string]any{},
		"model":  map[string]any{},
	}
	if ev.Request.Intent != nil && ev.Request.Intent.Params != nil {
		data["params"] = ev.Request.Intent.Params
	}
	if ev.Model != nil {
		m, err := ev.Model.Serialize(ctx)
		if err != nil {
			return nil, fmt.Errorf("serialize model for view: %w", err)
		}
		data["model"] = m
	}
	return data, nil
}

// lookup walks a dotted path ("Intent.Launch.say") through nested maps.
func lookup(tree map[string]any, key string) (any, bool) {
	if tree == nil {
		return nil, false
	}
	// Exact keys may contain dots.
	if v, ok := tree[key]; ok {
		return v, true
	}
	var cur any = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
