package testcase

import (
	"strings"
	"time"

	"github.com/yasube/yasube/internal/yasube/metric"
)

// Kind is the shape of the call a test case makes.
type Kind int

const (
	// List issues a (possibly templated) query against a collection.
	List Kind = iota
	// Detail fetches one entity by primary key.
	Detail
	// Download streams the content of one entity.
	Download
)

func (k Kind) String() string {
	switch k {
	case List:
		return "list"
	case Detail:
		return "detail"
	case Download:
		return "download"
	}
	return "unknown"
}

// Descriptor names a test case and the endpoint it exercises.
//
// Keys follow a three digit convention: the first digit is the entity (0 Products, 7 Sessions, 8 Files), the
// second the call (0 list, 1 detail, 2 download) and the third a variation.
type Descriptor struct {
	Key          string
	Name         string
	ResourcePath string
	Kind         Kind
	// Extra appends case specific metrics computed from the items of a successful list call.
	Extra func(items []Item) []metric.Metric
}

// RetentionLayout is the layout of the PublicationDate and EvictionDate product fields. The fractional
// seconds are mandatory and hold one to six digits, which the layout alone does not enforce.
const RetentionLayout = "2006-01-02T15:04:05.999999Z"

// ProductRetention emits one PRODUCT_RETENTION sample per item: whole days between PublicationDate and
// EvictionDate, or -1 when either is missing or malformed.
func ProductRetention(items []Item) []metric.Metric {
	out := make([]metric.Metric, 0, len(items))
	for _, item := range items {
		out = append(out, metric.ProductRetention(retentionDays(item)))
	}
	return out
}

func retentionDays(item Item) int {
	eviction, ok := parseItemTime(item, "EvictionDate")
	if !ok {
		return -1
	}
	publication, ok := parseItemTime(item, "PublicationDate")
	if !ok {
		return -1
	}
	d := eviction.Sub(publication)
	days := int(d / (24 * time.Hour))
	// floor, like a calendar day difference
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

func parseItemTime(item Item, key string) (time.Time, bool) {
	s, ok := item[key].(string)
	if !ok {
		return time.Time{}, false
	}
	if !hasFractionalSeconds(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(RetentionLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func hasFractionalSeconds(s string) bool {
	dot := strings.LastIndexByte(s, '.')
	if dot < 0 || !strings.HasSuffix(s, "Z") {
		return false
	}
	digits := s[dot+1 : len(s)-1]
	if len(digits) < 1 || len(digits) > 6 {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

var (
	TestCase001 = Descriptor{Key: "TestCase001", Name: "GET Products List", ResourcePath: "Products", Kind: List, Extra: ProductRetention}
	TestCase011 = Descriptor{Key: "TestCase011", Name: "GET Product Detail", ResourcePath: "Products", Kind: Detail}
	TestCase021 = Descriptor{Key: "TestCase021", Name: "GET Products Download", ResourcePath: "Products", Kind: Download}
	TestCase701 = Descriptor{Key: "TestCase701", Name: "GET Sessions List", ResourcePath: "Sessions", Kind: List}
	TestCase711 = Descriptor{Key: "TestCase711", Name: "GET Session Detail", ResourcePath: "Sessions", Kind: Detail}
	TestCase801 = Descriptor{Key: "TestCase801", Name: "GET Files List", ResourcePath: "Files", Kind: List}
	TestCase811 = Descriptor{Key: "TestCase811", Name: "GET File Detail", ResourcePath: "Files", Kind: Detail}
	TestCase821 = Descriptor{Key: "TestCase821", Name: "GET Files Download", ResourcePath: "Files", Kind: Download}
)

// Catalogue indexes the known test cases by key.
var Catalogue = map[string]Descriptor{
	TestCase001.Key: TestCase001,
	TestCase011.Key: TestCase011,
	TestCase021.Key: TestCase021,
	TestCase701.Key: TestCase701,
	TestCase711.Key: TestCase711,
	TestCase801.Key: TestCase801,
	TestCase811.Key: TestCase811,
	TestCase821.Key: TestCase821,
}
