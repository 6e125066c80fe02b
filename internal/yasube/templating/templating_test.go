package templating

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRenderer(now time.Time) *Renderer {
	return NewRendererWith(func() time.Time { return now }, rand.New(rand.NewSource(42)))
}

func TestRender_Date(t *testing.T) {
	now := time.Date(2022, 3, 31, 10, 20, 30, 999, time.UTC)
	tests := map[string]struct {
		template string
		want     string
	}{
		"now":             {template: "{{ NOW }}", want: "2022-03-31T10:20:30Z"},
		"minus days":      {template: "{{NOW-7d}}", want: "2022-03-24T10:20:30Z"},
		"plus days upper": {template: "{{ NOW + 1D }}", want: "2022-04-01T10:20:30Z"},
		"minus one month": {template: "{{ NOW - 1m }}", want: "2022-02-28T10:20:30Z"},
		"plus years":      {template: "{{ NOW +2y }}", want: "2024-03-31T10:20:30Z"},
		"embedded twice": {
			template: "$filter=PublicationDate gt {{ NOW -1d }} and PublicationDate lt {{ NOW }}",
			want:     "$filter=PublicationDate gt 2022-03-30T10:20:30Z and PublicationDate lt 2022-03-31T10:20:30Z",
		},
		"no placeholder": {template: "$top=10", want: "$top=10"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, testRenderer(now).Render(tc.template))
		})
	}
}

func TestRender_DateUsesUTC(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	now := time.Date(2022, 6, 1, 1, 0, 0, 0, loc)
	assert.Equal(t, "2022-05-31T23:00:00Z", testRenderer(now).Render("{{ NOW }}"))
}

func TestRender_Product(t *testing.T) {
	r := testRenderer(time.Now())
	s1l0 := regexp.MustCompile(`^(S[1-6]_RAW__0[SCNA]|IW_RAW__0[SCNA]|EW_RAW__0[SCNA]|WV_RAW__0[SCNA]|RF_RAW__0S|EN_RAW__0S|N[1-6]_RAW__0S|GP_RAW__0_|HK_RAW__0_)$`)
	for i := 0; i < 100; i++ {
		got := r.Render("{{ PRODUCT S1 L0 }}")
		assert.Regexp(t, s1l0, got)
	}

	for i := 0; i < 50; i++ {
		got := r.Render("{{ PRODUCT L2 }}")
		assert.NotContains(t, got, "[")
		assert.NotContains(t, got, "]")
		assert.NotEmpty(t, got)
	}

	for i := 0; i < 50; i++ {
		got := r.Render("{{ PRODUCT S2 }}")
		assert.True(t, strings.HasPrefix(got, "MSI_") || strings.HasPrefix(got, "PRD_") || strings.HasPrefix(got, "AUX_"), got)
	}
}

func TestRender_ProductAny(t *testing.T) {
	got := testRenderer(time.Now()).Render("productType eq '{{ PRODUCT }}'")
	assert.NotContains(t, got, "{{")
	assert.NotContains(t, got, "''")
}

func TestRender_Geo(t *testing.T) {
	r := testRenderer(time.Now())
	assert.Equal(t, "intersects("+EUR+")", r.Render("intersects({{ GEO EUR }})"))
	assert.Equal(t, MED, r.Render("{{GEO MED}}"))

	polygon := regexp.MustCompile(`^Polygon\(\((-?\d+(\.\d+)? -?\d+(\.\d+)?,)+-?\d+(\.\d+)? -?\d+(\.\d+)?\)\)$`)
	for i := 0; i < 30; i++ {
		assert.Regexp(t, polygon, r.Render("{{ GEO RANDOM }}"))
	}
}

func TestCountryPolygon(t *testing.T) {
	for _, iso2 := range countries {
		polygon, ok := CountryPolygon(iso2)
		require.True(t, ok, iso2)
		inner := strings.TrimSuffix(strings.TrimPrefix(polygon, "Polygon(("), "))")
		points := strings.Split(inner, ",")
		assert.Equal(t, points[0], points[len(points)-1], "%s is not closed", iso2)
	}
	_, ok := CountryPolygon("XX")
	assert.False(t, ok)

	lu, _ := CountryPolygon("LU")
	assert.Equal(t, "Polygon((5.7 49.5,6.2 49.5,6.5 49.8,6.2 50.1,5.8 50.2,5.7 49.5))", lu)
}

func TestAddMonths(t *testing.T) {
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), addMonths(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1))
	assert.Equal(t, time.Date(2021, 12, 15, 0, 0, 0, 0, time.UTC), addMonths(time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC), -1))
	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), addMonths(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), -12))
}
