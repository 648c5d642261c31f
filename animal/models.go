package animal

import "time"

// Animal mirrors the animals table. Price is nullable; an absent price means
// the listing falls back to its specie's price at read time.
type Animal struct {
	ID          string
	CenterID    string
	Name        string
	Description *string
	Age         int
	Specie      string
	Price       *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// View is the read projection of an animal with the price fallback applied.
// The fallback is display-time only; the stored row keeps its NULL price.
type View struct {
	ID          string
	CenterID    string
	Name        string
	Description *string
	Age         int
	Specie      string
	Price       float64
}

// CreateParams contains write parameters for adding animals. CenterID is not
// part of it: ownership is always the authenticated caller's identity.
type CreateParams struct {
	Name        string
	Description *string
	Age         int
	Specie      string
	Price       *float64
}

// UpdatePatch is a sparse update: only non-nil fields are applied, every other
// column keeps its prior value.
type UpdatePatch struct {
	Name        *string
	Description *string
	Age         *int
	Specie      *string
	Price       *float64
}

// IsEmpty reports whether the patch carries no field at all.
func (p UpdatePatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Age == nil && p.Specie == nil && p.Price == nil
}
