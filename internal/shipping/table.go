// Package shipping resolves the flat shipping fee of a customer-selected region.
package shipping

import (
	"context"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

type Region struct {
	Name string          `json:"name"`
	Fee  decimal.Decimal `json:"fee"`
}

// Resolver looks up region fees. A miss is CodeNotFound, never a zero fee.
type Resolver interface {
	Lookup(ctx context.Context, region string) (Region, error)
	Regions() []Region
}

// DefaultRegions is the pre-seeded fallback table (EGP).
var DefaultRegions = []Region{
	{Name: "Cairo", Fee: decimal.NewFromInt(50)},
	{Name: "Giza", Fee: decimal.NewFromInt(50)},
	{Name: "Alexandria", Fee: decimal.NewFromInt(60)},
	{Name: "Qalyubia", Fee: decimal.NewFromInt(55)},
	{Name: "Dakahlia", Fee: decimal.NewFromInt(65)},
	{Name: "Sharqia", Fee: decimal.NewFromInt(65)},
	{Name: "Gharbia", Fee: decimal.NewFromInt(65)},
	{Name: "Monufia", Fee: decimal.NewFromInt(65)},
	{Name: "Beheira", Fee: decimal.NewFromInt(70)},
	{Name: "Kafr El Sheikh", Fee: decimal.NewFromInt(70)},
	{Name: "Damietta", Fee: decimal.NewFromInt(70)},
	{Name: "Port Said", Fee: decimal.NewFromInt(70)},
	{Name: "Ismailia", Fee: decimal.NewFromInt(70)},
	{Name: "Suez", Fee: decimal.NewFromInt(70)},
	{Name: "Faiyum", Fee: decimal.NewFromInt(75)},
	{Name: "Beni Suef", Fee: decimal.NewFromInt(75)},
	{Name: "Minya", Fee: decimal.NewFromInt(80)},
	{Name: "Asyut", Fee: decimal.NewFromInt(85)},
	{Name: "Sohag", Fee: decimal.NewFromInt(90)},
	{Name: "Qena", Fee: decimal.NewFromInt(95)},
	{Name: "Luxor", Fee: decimal.NewFromInt(95)},
	{Name: "Aswan", Fee: decimal.NewFromInt(100)},
	{Name: "Red Sea", Fee: decimal.NewFromInt(100)},
	{Name: "Matrouh", Fee: decimal.NewFromInt(100)},
	{Name: "New Valley", Fee: decimal.NewFromInt(110)},
	{Name: "North Sinai", Fee: decimal.NewFromInt(110)},
	{Name: "South Sinai", Fee: decimal.NewFromInt(110)},
}

// Table is a static, case-insensitive region table.
type Table struct {
	byKey   map[string]Region
	regions []Region
}

func NewTable(regions []Region) *Table {
	t := &Table{byKey: make(map[string]Region, len(regions))}
	for _, r := range regions {
		key := regionKey(r.Name)
		if key == "" {
			continue
		}
		if _, dup := t.byKey[key]; !dup {
			t.regions = append(t.regions, r)
		}
		t.byKey[key] = r
	}
	sort.Slice(t.regions, func(i, j int) bool { return t.regions[i].Name < t.regions[j].Name })
	return t
}

func (t *Table) Lookup(_ context.Context, region string) (Region, error) {
	key := regionKey(region)
	if key == "" {
		return Region{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping region is required")
	}
	r, ok := t.byKey[key]
	if !ok {
		return Region{}, pkgerrors.New(pkgerrors.CodeNotFound, "shipping region not found").
			WithDetails(map[string]any{"region": strings.TrimSpace(region)})
	}
	return r, nil
}

// Regions returns the table sorted by name.
func (t *Table) Regions() []Region {
	out := make([]Region, 0, len(t.regions))
	for _, r := range t.regions {
		out = append(out, t.byKey[regionKey(r.Name)])
	}
	return out
}

func regionKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
