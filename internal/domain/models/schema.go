package models

import (
	"fmt"
	"strings"
)

// One-hot family prefixes produced at training time.
const (
	PrefixProductType  = "Product_Type_"
	PrefixBrand        = "Brand_"
	PrefixUsagePattern = "Usage_Pattern_"
)

// FeatureSchema is the ordered list of feature names the model was fit on.
// It is immutable once built.
type FeatureSchema struct {
	names []string
	index map[string]int
}

// NewFeatureSchema validates and copies names. Empty lists, blank names and
// duplicates are rejected.
func NewFeatureSchema(names []string) (*FeatureSchema, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("feature schema is empty")
	}
	s := &FeatureSchema{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, fmt.Errorf("feature %d has a blank name", i)
		}
		if _, dup := s.index[n]; dup {
			return nil, fmt.Errorf("duplicate feature %q", n)
		}
		s.names[i] = n
		s.index[n] = i
	}
	return s, nil
}

// Len returns the number of features.
func (s *FeatureSchema) Len() int { return len(s.names) }

// Names returns a copy of the feature names in schema order.
func (s *FeatureSchema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Index returns the column position of name.
func (s *FeatureSchema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Has reports whether name is a schema column.
func (s *FeatureSchema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Family returns the names of all columns starting with prefix, in schema order.
func (s *FeatureSchema) Family(prefix string) []string {
	var out []string
	for _, n := range s.names {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	return out
}

// FeatureVector holds one value per schema column, in schema order.
type FeatureVector struct {
	schema *FeatureSchema
	values []float64
}

// NewFeatureVector binds values to schema. len(values) must equal schema.Len().
func NewFeatureVector(schema *FeatureSchema, values []float64) (FeatureVector, error) {
	if schema == nil {
		return FeatureVector{}, fmt.Errorf("nil schema")
	}
	if len(values) != schema.Len() {
		return FeatureVector{}, fmt.Errorf("vector has %d values, schema has %d", len(values), schema.Len())
	}
	v := make([]float64, len(values))
	copy(v, values)
	return FeatureVector{schema: schema, values: v}, nil
}

func (v FeatureVector) Len() int { return len(v.values) }

// Names returns the column names in order.
func (v FeatureVector) Names() []string {
	if v.schema == nil {
		return nil
	}
	return v.schema.Names()
}

// Values returns a copy of the values in schema order.
func (v FeatureVector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Get returns the value of column name.
func (v FeatureVector) Get(name string) (float64, bool) {
	if v.schema == nil {
		return 0, false
	}
	i, ok := v.schema.Index(name)
	if !ok {
		return 0, false
	}
	return v.values[i], true
}
