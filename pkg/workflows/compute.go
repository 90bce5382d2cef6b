package workflows

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/schema"
)

// LookupFunc resolves an entity id to its fields. It must not block: hosts
// back it with an already loaded snapshot.
type LookupFunc func(id string) (map[string]any, bool)

// Env carries the host inputs of computations.
type Env struct {
	// TaxRate is the default rate of "percent" computations.
	TaxRate float64
	// Lookups resolves "lookup" sources by name.
	Lookups map[string]LookupFunc
	// Now anchors date computations without a base date.
	Now func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Params are the parameters of a named computation.
type Params map[string]any

func (p Params) str(key string) string {
	s, _ := p[key].(string)
	return s
}

func (p Params) strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (p Params) stringMap(key string) map[string]string {
	switch v := p[key].(type) {
	case map[string]string:
		return v
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, e := range v {
			if s, ok := e.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}

// ComputeFactory builds a rule compute function for the given targets.
type ComputeFactory func(env Env, targets []string, params Params) (func(domain.Values) domain.Values, error)

// Computations lists the named computations available to YAML definitions.
var Computations = map[string]ComputeFactory{
	"lookup":       lookup,
	"sum_product":  sumProduct,
	"percent":      percent,
	"sum":          sum,
	"add_interval": addInterval,
	"template":     template,
}

// Round2 rounds to cents.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func first(targets []string) (string, error) {
	if len(targets) != 1 {
		return "", fmt.Errorf("expected exactly one target, got %d", len(targets))
	}
	return targets[0], nil
}

// lookup copies entity fields into targets: fields maps target -> entity field.
// The trigger is read from "key" (the id field).
func lookup(env Env, targets []string, p Params) (func(domain.Values) domain.Values, error) {
	source, key := p.str("source"), p.str("key")
	fields := p.stringMap("fields")
	if source == "" || key == "" || len(fields) == 0 {
		return nil, fmt.Errorf("lookup requires source, key and fields")
	}
	for _, t := range targets {
		if _, ok := fields[t]; !ok {
			return nil, fmt.Errorf("lookup: no field mapped to target %s", t)
		}
	}
	return func(v domain.Values) domain.Values {
		out := make(domain.Values, len(targets))
		for _, t := range targets {
			out[t] = nil
		}
		resolve := env.Lookups[source]
		id := v.String(key)
		if resolve == nil || id == "" {
			return out
		}
		entity, ok := resolve(id)
		if !ok {
			return out
		}
		for _, t := range targets {
			out[t] = entity[fields[t]]
		}
		return out
	}, nil
}

// sumProduct sums the product of factors over every entry of list.
func sumProduct(_ Env, targets []string, p Params) (func(domain.Values) domain.Values, error) {
	target, err := first(targets)
	if err != nil {
		return nil, err
	}
	list, factors := p.str("list"), p.strings("factors")
	if list == "" || len(factors) == 0 {
		return nil, fmt.Errorf("sum_product requires list and factors")
	}
	return func(v domain.Values) domain.Values {
		entries, _ := v[list].([]any)
		total := 0.0
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			product := 1.0
			for _, f := range factors {
				n, _ := schema.ToFloat(entry[f])
				product *= n
			}
			total += product
		}
		return domain.Values{target: Round2(total)}
	}, nil
}

// percent multiplies source by rate (Env.TaxRate when absent).
func percent(env Env, targets []string, p Params) (func(domain.Values) domain.Values, error) {
	target, err := first(targets)
	if err != nil {
		return nil, err
	}
	source := p.str("source")
	if source == "" {
		return nil, fmt.Errorf("percent requires source")
	}
	rate, ok := schema.ToFloat(p["rate"])
	if !ok {
		rate = env.TaxRate
	}
	return func(v domain.Values) domain.Values {
		n, _ := schema.ToFloat(v[source])
		return domain.Values{target: Round2(n * rate)}
	}, nil
}

// sum adds sources.
func sum(_ Env, targets []string, p Params) (func(domain.Values) domain.Values, error) {
	target, err := first(targets)
	if err != nil {
		return nil, err
	}
	sources := p.strings("sources")
	if len(sources) == 0 {
		return nil, fmt.Errorf("sum requires sources")
	}
	return func(v domain.Values) domain.Values {
		total := 0.0
		for _, s := range sources {
			n, _ := schema.ToFloat(v[s])
			total += n
		}
		return domain.Values{target: Round2(total)}
	}, nil
}

// Intervals maps maintenance frequencies to a date step.
var Intervals = map[string]func(time.Time) time.Time{
	"daily":      func(t time.Time) time.Time { return t.AddDate(0, 0, 1) },
	"weekly":     func(t time.Time) time.Time { return t.AddDate(0, 0, 7) },
	"monthly":    func(t time.Time) time.Time { return t.AddDate(0, 1, 0) },
	"quarterly":  func(t time.Time) time.Time { return t.AddDate(0, 3, 0) },
	"semiannual": func(t time.Time) time.Time { return t.AddDate(0, 6, 0) },
	"annual":     func(t time.Time) time.Time { return t.AddDate(1, 0, 0) },
}

// addInterval advances the base date (today when blank) by the interval
// named in the interval field. Unknown intervals clear the target.
func addInterval(env Env, targets []string, p Params) (func(domain.Values) domain.Values, error) {
	target, err := first(targets)
	if err != nil {
		return nil, err
	}
	base, interval := p.str("base"), p.str("interval")
	if interval == "" {
		return nil, fmt.Errorf("add_interval requires interval")
	}
	return func(v domain.Values) domain.Values {
		step, ok := Intervals[strings.ToLower(v.String(interval))]
		if !ok {
			return domain.Values{target: nil}
		}
		start := env.now()
		if base != "" {
			if parsed, err := time.Parse(schema.DateLayout, v.String(base)); err == nil {
				start = parsed
			}
		}
		return domain.Values{target: step(start).Format(schema.DateLayout)}
	}, nil
}

var (
	placeholder = regexp.MustCompile(`\{([a-z0-9_]+)\}`)
	slugUnsafe  = regexp.MustCompile(`[^a-z0-9._-]+`)
)

// template fills "{field}" placeholders per target; targets listed in
// "slug" are lower-cased and stripped of unsafe characters.
func template(_ Env, targets []string, p Params) (func(domain.Values) domain.Values, error) {
	templates := p.stringMap("templates")
	slug := make(map[string]bool)
	for _, s := range p.strings("slug") {
		slug[s] = true
	}
	for _, t := range targets {
		if _, ok := templates[t]; !ok {
			return nil, fmt.Errorf("template: no template for target %s", t)
		}
	}
	return func(v domain.Values) domain.Values {
		out := make(domain.Values, len(targets))
		for _, t := range targets {
			s := placeholder.ReplaceAllStringFunc(templates[t], func(m string) string {
				return strings.TrimSpace(fmt.Sprint(valueOr(v, m[1:len(m)-1])))
			})
			s = strings.Join(strings.Fields(s), " ")
			if slug[t] {
				s = slugUnsafe.ReplaceAllString(strings.ToLower(s), "")
				s = strings.Trim(s, "._-")
			}
			out[t] = strings.TrimSpace(s)
		}
		return out
	}, nil
}

func valueOr(v domain.Values, key string) any {
	if x, ok := v[key]; ok && x != nil {
		return x
	}
	return ""
}
