package specie

import "time"

// Specie is shared reference data. It provides the default price for animals
// that omit their own and is immutable once created.
type Specie struct {
	ID          string
	Name        string
	Description string
	Price       float64
	CreatedAt   time.Time
}

// Summary is the list projection: specie identity plus how many animals
// reference it. The count is computed at read time, never stored.
type Summary struct {
	ID           string
	Name         string
	AnimalsCount int
}

// AnimalRef is the redacted animal projection embedded in a specie detail.
type AnimalRef struct {
	ID     string
	Name   string
	Specie string
}

// Detail is the single-specie projection with its referencing animals.
type Detail struct {
	Specie
	Animals []AnimalRef
}

// CreateParams contains write parameters for adding species.
type CreateParams struct {
	Name        string
	Description string
	Price       float64
}
