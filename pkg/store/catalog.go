package store

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	directives "github.com/goliatone/go-directives"
)

// Catalog is the YAML seed file read by the CLI and examples.
//
//	components:
//	  - id: hero
//	    type: banner
//	    is_active: true
//	    content: {title: Welcome}
//	promotions: [...]
//	promo_codes: [...]
type Catalog struct {
	Components []directives.Component `yaml:"components"`
	Promotions []directives.Promotion `yaml:"promotions"`
	PromoCodes []directives.PromoCode `yaml:"promo_codes"`
}

// DecodeCatalog reads a catalog document. Unknown keys are rejected.
func DecodeCatalog(r io.Reader) (*Catalog, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var catalog Catalog
	if err := decoder.Decode(&catalog); err != nil && err != io.EOF {
		return nil, fmt.Errorf("store: decode catalog: %w", err)
	}
	for i, component := range catalog.Components {
		if !directives.ValidComponentID(component.ID) {
			return nil, fmt.Errorf("store: catalog component %d: %w: %q", i, directives.ErrInvalidComponentID, component.ID)
		}
		if component.Type == "" {
			catalog.Components[i].Type = directives.TypeCustom
			continue
		}
		if _, err := directives.ParseComponentType(string(component.Type)); err != nil {
			return nil, fmt.Errorf("store: catalog component %q: %w", component.ID, err)
		}
	}
	return &catalog, nil
}

// LoadCatalog reads the catalog at path.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open catalog: %w", err)
	}
	defer f.Close()
	return DecodeCatalog(f)
}

// Stores builds populated component and promotion stores from the catalog.
func (c *Catalog) Stores(opts ...PromotionsOption) (*Components, *Promotions) {
	components := NewComponents(c.Components...)
	promotions := NewPromotions(opts...)
	for _, promo := range c.Promotions {
		promotions.PutPromotion(promo)
	}
	for _, code := range c.PromoCodes {
		promotions.PutCode(code)
	}
	return components, promotions
}
