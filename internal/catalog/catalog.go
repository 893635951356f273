// Package catalog holds the immutable price list the funnel sells from.
// It is loaded once at startup and never mutated afterwards.
package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Audience distinguishes products for people from products for pets.
type Audience string

const (
	// AudienceHuman marks products intended for people.
	AudienceHuman Audience = "human"
	// AudiencePet marks products intended for pets.
	AudiencePet Audience = "pet"
)

// Entry describes one sellable product variant. Prices are CLP, IVA included.
type Entry struct {
	SKU      string   `yaml:"sku"`
	Name     string   `yaml:"name"`
	Audience Audience `yaml:"audience"`
	Variant  string   `yaml:"variant"`
	PriceCLP int64    `yaml:"price_clp"`
}

// Catalog is a read-only index over the configured entries.
type Catalog struct {
	entries []Entry
	bySKU   map[string]Entry
}

// New builds a Catalog from entries, validating SKU uniqueness.
func New(entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog: no entries")
	}
	bySKU := make(map[string]Entry, len(entries))
	for _, e := range entries {
		sku := strings.TrimSpace(strings.ToLower(e.SKU))
		if sku == "" {
			return nil, fmt.Errorf("catalog: entry %q has empty sku", e.Name)
		}
		if e.PriceCLP <= 0 {
			return nil, fmt.Errorf("catalog: entry %q has non-positive price", e.SKU)
		}
		switch e.Audience {
		case AudienceHuman, AudiencePet:
		default:
			return nil, fmt.Errorf("catalog: entry %q has invalid audience %q", e.SKU, e.Audience)
		}
		if _, dup := bySKU[sku]; dup {
			return nil, fmt.Errorf("catalog: duplicate sku %q", e.SKU)
		}
		e.SKU = sku
		bySKU[sku] = e
	}
	normalized := make([]Entry, 0, len(entries))
	for _, e := range entries {
		normalized = append(normalized, bySKU[strings.TrimSpace(strings.ToLower(e.SKU))])
	}
	return &Catalog{entries: normalized, bySKU: bySKU}, nil
}

// Default returns the built-in aerochamber price list (CLP, Chile).
func Default() *Catalog {
	c, err := New([]Entry{
		{SKU: "aerocamara-adulto", Name: "Aerocámara Plegable Humana Adulto", Audience: AudienceHuman, Variant: "adulto", PriceCLP: 26990},
		{SKU: "aerocamara-pediatrica", Name: "Aerocámara Plegable Humana Pediátrica", Audience: AudienceHuman, Variant: "pediatrico", PriceCLP: 24990},
		{SKU: "aerocamara-bolso", Name: "Bolso de Transporte Aerocámara", Audience: AudienceHuman, Variant: "bolso", PriceCLP: 7990},
		{SKU: "aerocamara-gato-perro-pequeno", Name: "Aerocámara Plegable Mascotas (Gato/Perro Pequeño)", Audience: AudiencePet, Variant: "gato_peq", PriceCLP: 22990},
		{SKU: "aerocamara-perro-mediano", Name: "Aerocámara Plegable Mascotas (Perro Mediano)", Audience: AudiencePet, Variant: "perro_med", PriceCLP: 24990},
		{SKU: "aerocamara-perro-grande", Name: "Aerocámara Plegable Mascotas (Perro Grande)", Audience: AudiencePet, Variant: "perro_grande", PriceCLP: 27990},
	})
	if err != nil {
		panic(err) // built-in list is statically correct
	}
	return c
}

// LoadFile reads a YAML price-list override. An empty path returns the default.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(entries)
}

// Find returns the entry for a SKU, matching case-insensitively.
func (c *Catalog) Find(sku string) (Entry, bool) {
	e, ok := c.bySKU[strings.TrimSpace(strings.ToLower(sku))]
	return e, ok
}

// FindVariant returns the entry for an audience/variant pair.
func (c *Catalog) FindVariant(a Audience, variant string) (Entry, bool) {
	for _, e := range c.entries {
		if e.Audience == a && e.Variant == variant {
			return e, true
		}
	}
	return Entry{}, false
}

// ByAudience lists entries for one audience in configuration order.
func (c *Catalog) ByAudience(a Audience) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Audience == a {
			out = append(out, e)
		}
	}
	return out
}

// Entries returns all entries in configuration order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// FormatCLP renders an amount as Chilean pesos with dot thousands separators.
func FormatCLP(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte('.')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte('.')
		}
	}
	return b.String()
}
