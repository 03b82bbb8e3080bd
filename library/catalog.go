package library

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Catalog is the YAML document accepted by ImportCatalog:
//
//	books:
//	  - title: "1984"
//	    genre: Fiction
//	  - title: "A Brief History of Time"
//	    genre: Science
//	    available: false
//	members:
//	  - name: Alice
//	    level: Premium
//	    password: secret
type Catalog struct {
	Books   []CatalogBook   `yaml:"books" validate:"dive"`
	Members []CatalogMember `yaml:"members" validate:"dive"`
}

// CatalogBook is one book entry. Available defaults to true.
type CatalogBook struct {
	Title     string `yaml:"title" validate:"required"`
	Genre     Genre  `yaml:"genre" validate:"required"`
	Available *bool  `yaml:"available"`
}

// CatalogMember is one member entry. Level is free text: unknown tiers are
// imported and only rejected when the fee is requested.
type CatalogMember struct {
	Name     string `yaml:"name" validate:"required"`
	Level    string `yaml:"level"`
	Password string `yaml:"password" validate:"required"`
}

// ImportSummary reports what ImportCatalog stored.
type ImportSummary struct {
	BookIDs   []int64
	MemberIDs []int64
}

var catalogValidator = validator.New(validator.WithRequiredStructEnabled())

// UnmarshalYAML accepts a genre by name.
func (g *Genre) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: genre must be a scalar", value.Line)
	}
	if err := g.UnmarshalText([]byte(value.Value)); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	return nil
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &c, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := catalogValidator.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return &c, nil
}

// ImportCatalog parses a catalog from r and stores its books and members.
// Entries are added in document order; the first failure stops the import
// and the summary lists what was stored before it.
func (lm *LibraryManager) ImportCatalog(r io.Reader) (ImportSummary, error) {
	var summary ImportSummary

	c, err := ParseCatalog(r)
	if err != nil {
		return summary, err
	}

	for _, b := range c.Books {
		available := true
		if b.Available != nil {
			available = *b.Available
		}
		id, err := lm.AddBook(b.Title, b.Genre, available)
		if err != nil {
			return summary, fmt.Errorf("import book %q: %w", b.Title, err)
		}
		summary.BookIDs = append(summary.BookIDs, id)
	}

	for _, m := range c.Members {
		id, err := lm.AddMember(m.Name, LevelFromText(m.Level), m.Password)
		if err != nil {
			return summary, fmt.Errorf("import member %q: %w", m.Name, err)
		}
		summary.MemberIDs = append(summary.MemberIDs, id)
	}

	lm.log.Info("catalog imported", "books", len(summary.BookIDs), "members", len(summary.MemberIDs))
	return summary, nil
}
