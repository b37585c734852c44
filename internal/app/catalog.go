package app

import (
	"github.com/go-faster/errors"

	"github.com/xenking/kart-catalog/internal/attribute"
	"github.com/xenking/kart-catalog/internal/domain/product"
	"github.com/xenking/kart-catalog/internal/governance"
	"github.com/xenking/kart-catalog/internal/search"
	"github.com/xenking/kart-catalog/internal/synonym"
	"github.com/xenking/kart-catalog/internal/taxonomy"
)

// Vocabulary bundles the governance and search vocabularies.
type Vocabulary struct {
	Taxonomy   *taxonomy.Registry
	Attributes *attribute.Dictionary
	Synonyms   *synonym.Table
}

// LoadVocabulary reads the configured vocabulary files, falling back to the
// built-in defaults for any file left empty.
func LoadVocabulary(cfg VocabConfig) (*Vocabulary, error) {
	v := &Vocabulary{
		Taxonomy:   taxonomy.Default(),
		Attributes: attribute.Default(),
		Synonyms:   synonym.Default(),
	}
	var err error
	if cfg.TaxonomyFile != "" {
		if v.Taxonomy, err = taxonomy.LoadFile(cfg.TaxonomyFile); err != nil {
			return nil, errors.Wrap(err, "load taxonomy")
		}
	}
	if cfg.AttributesFile != "" {
		if v.Attributes, err = attribute.LoadFile(cfg.AttributesFile); err != nil {
			return nil, errors.Wrap(err, "load attributes")
		}
	}
	if cfg.SynonymsFile != "" {
		if v.Synonyms, err = synonym.LoadFile(cfg.SynonymsFile); err != nil {
			return nil, errors.Wrap(err, "load synonyms")
		}
	}
	return v, nil
}

// NewPipeline builds the import pipeline from the vocabulary and import
// settings.
func NewPipeline(v *Vocabulary, cfg ImportConfig) (*governance.Pipeline, error) {
	status := product.Status(cfg.DefaultStatus)
	if !status.Valid() {
		return nil, errors.Errorf("invalid default status %q", cfg.DefaultStatus)
	}
	validator := governance.NewValidator(v.Taxonomy, v.Attributes,
		governance.WithSEOLimits(cfg.MaxTitle, cfg.MaxDesc),
	)
	return governance.NewPipeline(validator,
		governance.WithCurrency(cfg.Currency),
		governance.WithDefaultStatus(status),
		governance.WithPassthrough(cfg.Passthrough...),
	), nil
}

// NewEngine builds the search engine from the vocabulary and search settings.
func NewEngine(v *Vocabulary, cfg SearchConfig) *search.Engine {
	return search.NewEngine(search.NewNormalizer(v.Synonyms), cfg.Weights)
}
