package center

// Profile is the redacted center projection exposed publicly. Login, password
// and address never leave the repository's SELECT list.
type Profile struct {
	ID   string
	Name string
}

// AnimalRef is the redacted animal projection embedded in a center detail.
type AnimalRef struct {
	ID     string
	Name   string
	Specie string
}

// Detail is the single-center projection with its owned animals.
type Detail struct {
	Profile
	Animals []AnimalRef
}
