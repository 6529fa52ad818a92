package consts

const (
	MinAge = 10
	MaxAge = 100

	DefaultVariant = "bike_od"
	AppendVariant  = "od_append"
)

var (
	Genders = []string{"M", "F", "LGBTQ+"}

	IncomeBrackets = []string{
		"A: <10,000",
		"B: 10,001–30,000",
		"C: 30,001–50,000",
		"D: >50,000",
	}

	TripTypes = []string{"Work", "Recreation", "School", "Errand"}

	Months = []string{
		"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
	}

	AppendGenders     = []string{"Male", "Female", "Other", "Prefer not to say"}
	AppendTripTypes   = []string{"Commute", "School", "Leisure", "Errand"}
	AppendFrequencies = []string{"Daily", "Weekly", "Occasionally"}
)
