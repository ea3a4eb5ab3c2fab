package analysis

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/KaramelBytes/candidash/internal/dataset"
)

// Alias maps a free-text place name to a region id.
type Alias struct {
	Name string
	ID   string
}

// Gazetteer resolves city names to region ids. Lookup is exact first, then
// case-insensitive; on case-insensitive collisions the earlier alias wins.
type Gazetteer struct {
	ids    []string
	known  map[string]struct{}
	exact  map[string]string
	folded map[string]string
}

// NewGazetteer builds the lookup tables once.
func NewGazetteer(aliases []Alias, ids []string) *Gazetteer {
	g := &Gazetteer{
		ids:    append([]string(nil), ids...),
		known:  make(map[string]struct{}, len(ids)),
		exact:  make(map[string]string, len(aliases)),
		folded: make(map[string]string, len(aliases)),
	}
	for _, id := range ids {
		g.known[id] = struct{}{}
	}
	for _, a := range aliases {
		if _, ok := g.exact[a.Name]; !ok {
			g.exact[a.Name] = a.ID
		}
		k := fold(a.Name)
		if _, ok := g.folded[k]; !ok {
			g.folded[k] = a.ID
		}
	}
	return g
}

// cases.Caser is stateful, so a fresh one is used per call.
func fold(s string) string { return cases.Fold().String(s) }

// IDs returns every region id in display order.
func (g *Gazetteer) IDs() []string { return append([]string(nil), g.ids...) }

// Resolve returns the region for a city name; blank or unknown names fail.
func (g *Gazetteer) Resolve(city string) (string, bool) {
	name := strings.TrimSpace(city)
	if name == "" {
		return "", false
	}
	id, ok := g.exact[name]
	if !ok {
		id, ok = g.folded[fold(name)]
	}
	if !ok {
		return "", false
	}
	if _, known := g.known[id]; !known {
		return "", false
	}
	return id, true
}

// GeoCounts counts records per region. Every region id is present, zero
// when nothing resolved to it.
func GeoCounts(records []dataset.Record, cityField string, g *Gazetteer) map[string]int {
	out := make(map[string]int, len(g.ids))
	for _, id := range g.ids {
		out[id] = 0
	}
	for _, r := range records {
		if id, ok := g.Resolve(r.Text(cityField)); ok {
			out[id]++
		}
	}
	return out
}

type RegionCount struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

// GeoSeries is GeoCounts in the gazetteer's id order, as the map chart expects.
func GeoSeries(records []dataset.Record, cityField string, g *Gazetteer) []RegionCount {
	counts := GeoCounts(records, cityField, g)
	out := make([]RegionCount, len(g.ids))
	for i, id := range g.ids {
		out[i] = RegionCount{ID: id, Value: counts[id]}
	}
	return out
}

var egyptAliases = []Alias{
	{"Cairo", "EG-C"}, {"Alexandria", "EG-ALX"}, {"Giza", "EG-GZ"},
	{"Mansoura", "EG-DK"}, {"Dakahlia", "EG-DK"}, {"Tanta", "EG-GH"}, {"Gharbia", "EG-GH"},
	{"Zagazig", "EG-SHR"}, {"Sharqia", "EG-SHR"}, {"Banha", "EG-KB"}, {"Qalyubia", "EG-KB"},
	{"Kafr El Sheikh", "EG-KFS"}, {"Shibin El Kom", "EG-MNF"}, {"Monufia", "EG-MNF"},
	{"Damanhur", "EG-BH"}, {"Beheira", "EG-BH"}, {"Damietta", "EG-DT"}, {"Port Said", "EG-PTS"},
	{"Suez", "EG-SUZ"}, {"Ismailia", "EG-IS"}, {"Beni Suef", "EG-BNS"}, {"Fayoum", "EG-FYM"},
	{"Minya", "EG-MN"}, {"Asyut", "EG-AST"}, {"Sohag", "EG-SHG"}, {"Qena", "EG-KN"},
	{"Luxor", "EG-LX"}, {"Aswan", "EG-ASN"}, {"Hurghada", "EG-BA"}, {"Red Sea", "EG-BA"},
	{"Kharga", "EG-WAD"}, {"New Valley", "EG-WAD"}, {"Marsa Matruh", "EG-MT"}, {"Matrouh", "EG-MT"},
	{"El Arish", "EG-SIN"}, {"North Sinai", "EG-SIN"}, {"Sharm El Sheikh", "EG-JS"}, {"South Sinai", "EG-JS"},
}

var egyptGovernorates = []string{
	"EG-C", "EG-ALX", "EG-GZ", "EG-DK", "EG-GH", "EG-SHR", "EG-KB",
	"EG-KFS", "EG-MNF", "EG-BH", "EG-DT", "EG-PTS", "EG-SUZ", "EG-IS",
	"EG-BNS", "EG-FYM", "EG-MN", "EG-AST", "EG-SHG", "EG-KN", "EG-LX",
	"EG-ASN", "EG-BA", "EG-WAD", "EG-MT", "EG-SIN", "EG-JS",
}

// EgyptGovernorates maps common city and governorate names to ISO 3166-2:EG ids.
func EgyptGovernorates() *Gazetteer {
	return NewGazetteer(egyptAliases, egyptGovernorates)
}
