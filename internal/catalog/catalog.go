// Package catalog holds the static QA criterion catalog evaluated on every
// sheet. Definitions are fixed at process start and never mutated.
package catalog

// CriterionDefinition is one named QA check, keyed by a short code
type CriterionDefinition struct {
	ID          string
	Name        string
	Description string
}

// Criteria is the ordered list of checks applied to every analyzed sheet
var Criteria = []CriterionDefinition{
	{
		ID:          "EQ",
		Name:        "Equipment/Element Labels",
		Description: "All major equipment, rooms, and elements are labeled",
	},
	{
		ID:          "DIM",
		Name:        "Dimension Strings",
		Description: "Dimension lines are present and complete",
	},
	{
		ID:          "TB",
		Name:        "Title Block & Scale",
		Description: "Title block present with sheet number, scale indicated",
	},
	{
		ID:          "FS",
		Name:        "Fire Safety Markings",
		Description: "Fire exits, fire-rated assemblies, extinguishers marked",
	},
	{
		ID:          "SYM",
		Name:        "Symbol Consistency",
		Description: "Symbols match legend, no undefined symbols",
	},
	{
		ID:          "ANN",
		Name:        "Annotations & Notes",
		Description: "General notes, callouts, and references present",
	},
	{
		ID:          "CRD",
		Name:        "Coordination Markers",
		Description: "Grid lines, column markers, reference bubbles present",
	},
	{
		ID:          "CLR",
		Name:        "Clearance & Accessibility",
		Description: "ADA clearances, door swings, egress paths shown",
	},
}

// Lookup returns the catalog entry for a criterion key
func Lookup(id string) (CriterionDefinition, bool) {
	for _, c := range Criteria {
		if c.ID == id {
			return c, true
		}
	}
	return CriterionDefinition{}, false
}

// Description returns the catalog description for a criterion key, or the
// empty string when the key is not in the catalog
func Description(id string) string {
	c, _ := Lookup(id)
	return c.Description
}
