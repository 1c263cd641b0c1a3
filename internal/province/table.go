package province

import "github.com/i474232898/cuba-rates/internal/exchange"

// VarianceEntry is static reference data for one province.
type VarianceEntry struct {
	ID              string
	Name            string
	VariancePercent float64
	Coordinates     exchange.Coordinates
}

// centerOfMap is used when a province has no known map position.
var centerOfMap = exchange.Coordinates{X: 50, Y: 50}

// table lists the 15 provinces and the special municipality, west to east.
// Variances are percentages against the national rate.
var table = []VarianceEntry{
	{ID: "pinar-del-rio", Name: "Pinar del Río", VariancePercent: -3.5, Coordinates: exchange.Coordinates{X: 6, Y: 42}},
	{ID: "artemisa", Name: "Artemisa", VariancePercent: -1.2, Coordinates: exchange.Coordinates{X: 12, Y: 40}},
	{ID: "la-habana", Name: "La Habana", VariancePercent: 0.5, Coordinates: exchange.Coordinates{X: 17, Y: 39}},
	{ID: "mayabeque", Name: "Mayabeque", VariancePercent: -2.1, Coordinates: exchange.Coordinates{X: 21, Y: 40}},
	{ID: "matanzas", Name: "Matanzas", VariancePercent: 12.0, Coordinates: exchange.Coordinates{X: 27, Y: 40}},
	{ID: "cienfuegos", Name: "Cienfuegos", VariancePercent: 3.5, Coordinates: exchange.Coordinates{X: 33, Y: 41}},
	{ID: "villa-clara", Name: "Villa Clara", VariancePercent: 2.8, Coordinates: exchange.Coordinates{X: 38, Y: 40}},
	{ID: "sancti-spiritus", Name: "Sancti Spíritus", VariancePercent: -1.5, Coordinates: exchange.Coordinates{X: 44, Y: 40}},
	{ID: "ciego-de-avila", Name: "Ciego de Ávila", VariancePercent: 11.5, Coordinates: exchange.Coordinates{X: 50, Y: 39}},
	{ID: "camaguey", Name: "Camagüey", VariancePercent: 1.2, Coordinates: exchange.Coordinates{X: 59, Y: 40}},
	{ID: "las-tunas", Name: "Las Tunas", VariancePercent: -6.5, Coordinates: exchange.Coordinates{X: 67, Y: 41}},
	{ID: "holguin", Name: "Holguín", VariancePercent: 4.0, Coordinates: exchange.Coordinates{X: 76, Y: 42}},
	{ID: "granma", Name: "Granma", VariancePercent: -8.0, Coordinates: exchange.Coordinates{X: 81, Y: 58}},
	{ID: "santiago-de-cuba", Name: "Santiago de Cuba", VariancePercent: 5.5, Coordinates: exchange.Coordinates{X: 88, Y: 65}},
	{ID: "guantanamo", Name: "Guantánamo", VariancePercent: -4.0, Coordinates: exchange.Coordinates{X: 95, Y: 68}},
	{ID: "isla-de-la-juventud", Name: "Isla de la Juventud", VariancePercent: -5.5, Coordinates: exchange.Coordinates{X: 8, Y: 77}},
}

var (
	idByName = make(map[string]string, len(table))
	byID     = make(map[string]VarianceEntry, len(table))
)

func init() {
	for _, e := range table {
		idByName[e.Name] = e.ID
		byID[e.ID] = e
	}
}

// Table returns a copy of the reference table.
func Table() []VarianceEntry {
	out := make([]VarianceEntry, len(table))
	copy(out, table)
	return out
}

// IDForName maps a display name to its province id. Matching is exact,
// accents included.
func IDForName(name string) (string, bool) {
	id, ok := idByName[name]
	return id, ok
}

func coordinatesFor(id string) exchange.Coordinates {
	if e, ok := byID[id]; ok {
		return e.Coordinates
	}
	return centerOfMap
}
