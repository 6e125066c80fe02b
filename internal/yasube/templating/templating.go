// Package templating expands the placeholders that may appear in configured list queries:
//
//	{{ NOW }}, {{ NOW -7d }}, {{ NOW +1m }}, {{ NOW -2y }}   UTC timestamp, optionally shifted
//	{{ PRODUCT S1 L0 }}, {{ PRODUCT S2 }}, {{ PRODUCT L1 }}  random product type
//	{{ GEO EUR }}, {{ GEO MED }}, {{ GEO RANDOM }}           polygon
//
// Every occurrence is rendered independently, so two {{ PRODUCT }} placeholders may yield different types.
package templating

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const dateLayout = "2006-01-02T15:04:05Z"

var (
	datePattern    = regexp.MustCompile(`\{\{\s*NOW\s*(?:([+-])\s*(\d+)([dDmMyY]))?\s*\}\}`)
	productPattern = regexp.MustCompile(`\{\{\s*PRODUCT\s*(S1|S2|S3)?\s*(L0|L1|L2|AUX)?\s*\}\}`)
	geoPattern     = regexp.MustCompile(`\{\{\s*GEO\s*(RANDOM|EUR|MED)\s*\}\}`)
	rulePattern    = regexp.MustCompile(`\[([^\]]+)\]`)
)

// Renderer expands query templates. It is safe for concurrent use.
type Renderer struct {
	now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRenderer returns a renderer using the wall clock and a time-seeded random source.
func NewRenderer() *Renderer {
	return NewRendererWith(time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewRendererWith allows the clock and random source to be fixed, e.g. in tests.
func NewRendererWith(now func() time.Time, rng *rand.Rand) *Renderer {
	return &Renderer{now: now, rng: rng}
}

// Render replaces every placeholder in template. Text without placeholders is returned unchanged.
func (r *Renderer) Render(template string) string {
	out := datePattern.ReplaceAllStringFunc(template, func(s string) string {
		return r.date(datePattern.FindStringSubmatch(s))
	})
	out = productPattern.ReplaceAllStringFunc(out, func(s string) string {
		return r.product(productPattern.FindStringSubmatch(s))
	})
	return geoPattern.ReplaceAllStringFunc(out, func(s string) string {
		return r.geo(geoPattern.FindStringSubmatch(s)[1])
	})
}

func (r *Renderer) date(groups []string) string {
	t := r.now().UTC()
	if groups[1] != "" {
		amount, _ := strconv.Atoi(groups[2])
		if groups[1] == "-" {
			amount = -amount
		}
		switch strings.ToLower(groups[3]) {
		case "d":
			t = t.AddDate(0, 0, amount)
		case "m":
			t = addMonths(t, amount)
		case "y":
			t = addMonths(t, 12*amount)
		}
	}
	return t.Format(dateLayout)
}

// addMonths shifts t by n calendar months, clamping the day to the end of the target month
// (31 March - 1 month is 28 or 29 February, not 3 March).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func (r *Renderer) product(groups []string) string {
	sat, level := groups[1], groups[2]
	var rules []string
	for _, s := range satellites {
		if sat != "" && s != sat {
			continue
		}
		for _, l := range levels {
			if level != "" && l != level {
				continue
			}
			rules = append(rules, productTypes[s][l]...)
		}
	}
	if len(rules) == 0 {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rule := rules[r.rng.Intn(len(rules))]
	return rulePattern.ReplaceAllStringFunc(rule, func(s string) string {
		inner := s[1 : len(s)-1]
		if strings.Contains(inner, "|") {
			choices := strings.Split(inner, "|")
			return choices[r.rng.Intn(len(choices))]
		}
		if bounds := strings.SplitN(inner, "..", 2); len(bounds) == 2 {
			lo, errLo := strconv.Atoi(bounds[0])
			hi, errHi := strconv.Atoi(bounds[1])
			if errLo == nil && errHi == nil && hi >= lo {
				return strconv.Itoa(lo + r.rng.Intn(hi-lo+1))
			}
		}
		return inner
	})
}

func (r *Renderer) geo(preset string) string {
	switch preset {
	case "EUR":
		return EUR
	case "MED":
		return MED
	}
	r.mu.Lock()
	iso2 := countries[r.rng.Intn(len(countries))]
	r.mu.Unlock()
	polygon, _ := CountryPolygon(iso2)
	return polygon
}
