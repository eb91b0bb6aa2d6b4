package formula

// Category classifies a formula's epistemic status.
type Category string

const (
	// Established formulas are axiomatic entries cited to prior literature.
	// They require no derivation chain and may not declare parents.
	Established Category = "ESTABLISHED"

	// Theory formulas are postulates of the framework under audit.
	Theory Category = "THEORY"

	// Derived formulas follow from parents by recorded derivation steps.
	Derived Category = "DERIVED"

	// Prediction formulas are derived results with experimental comparisons.
	Prediction Category = "PREDICTION"
)

// ValidCategories defines the allowed category values.
var ValidCategories = map[Category]bool{
	Established: true,
	Theory:      true,
	Derived:     true,
	Prediction:  true,
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	return ValidCategories[c]
}

// Comparison holds the optional predicted-versus-experimental fields of a
// prediction-class formula. All fields are optional; a nil pointer means
// the value was not recorded in the snapshot.
type Comparison struct {
	PredictedValue    *float64 `json:"predicted_value,omitempty" yaml:"predicted_value,omitempty"`
	ExperimentalValue *float64 `json:"experimental_value,omitempty" yaml:"experimental_value,omitempty"`
	Uncertainty       *float64 `json:"uncertainty,omitempty" yaml:"uncertainty,omitempty"`
}

// Record is a single formula-database entry.
//
// ID is the unique, immutable key used everywhere else in the system.
// DisplayVariants holds the rendered spellings of the formula (plain, HTML,
// LaTeX); at least one is required. ParentFormulaIDs and
// EstablishedPhysicsIDs are tracked separately for provenance but form a
// single dependency edge set for graph purposes.
type Record struct {
	ID                    string     `json:"id" yaml:"id"`
	Category              Category   `json:"category" yaml:"category"`
	DisplayVariants       []string   `json:"display_variants" yaml:"display_variants"`
	ParentFormulaIDs      []string   `json:"parent_formula_ids,omitempty" yaml:"parent_formula_ids,omitempty"`
	EstablishedPhysicsIDs []string   `json:"established_physics_ids,omitempty" yaml:"established_physics_ids,omitempty"`
	DerivationSteps       []string   `json:"derivation_steps,omitempty" yaml:"derivation_steps,omitempty"`
	Comparison            Comparison `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

// Dependencies returns ParentFormulaIDs ∪ EstablishedPhysicsIDs,
// deduplicated, parents first, in declaration order.
func (r *Record) Dependencies() []string {
	seen := make(map[string]bool, len(r.ParentFormulaIDs)+len(r.EstablishedPhysicsIDs))
	deps := make([]string, 0, len(r.ParentFormulaIDs)+len(r.EstablishedPhysicsIDs))
	for _, id := range r.ParentFormulaIDs {
		if !seen[id] {
			seen[id] = true
			deps = append(deps, id)
		}
	}
	for _, id := range r.EstablishedPhysicsIDs {
		if !seen[id] {
			seen[id] = true
			deps = append(deps, id)
		}
	}
	return deps
}

// Snapshot is an ordered collection of records as loaded from a database
// file. Order is the file's declaration order and drives store insertion
// order, which in turn drives report determinism.
type Snapshot struct {
	Formulas []Record `json:"formulas" yaml:"formulas"`
}
