package models

// RaidOption is one of the fixed set of raids viewers can sign up for.
type RaidOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// GradeOption is a viewer tier. Priority drives the admin grade sort:
// lower sorts first.
type GradeOption struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Priority int    `json:"priority"`
}

var RaidOptions = []RaidOption{
	{Key: "dirige", Label: "Dirige"},
	{Key: "dirige-hard", Label: "Dirige (Bad Blood)"},
	{Key: "inhwagongjeon", Label: "Inhwagongjeon"},
	{Key: "narbel", Label: "Artificial God: Narbel"},
	{Key: "narble-hard", Label: "Narbel: Hard Mode"},
}

var GradeOptions = []GradeOption{
	{Key: "burning", Label: "Burning Cheese", Priority: 1},
	{Key: "pink", Label: "Pink Cheese", Priority: 2},
	{Key: "yellow", Label: "Yellow Cheese", Priority: 3},
	{Key: "normal", Label: "Normal", Priority: 4},
}

// UnknownGradePriority is the sort value for any grade key outside the
// enumerated set. It sorts last.
const UnknownGradePriority = 99

// RaidByKey returns the raid option for key, or ok=false for anything
// outside the fixed set.
func RaidByKey(key string) (RaidOption, bool) {
	for _, r := range RaidOptions {
		if r.Key == key {
			return r, true
		}
	}
	return RaidOption{}, false
}

func ValidRaid(key string) bool {
	_, ok := RaidByKey(key)
	return ok
}

func ValidGrade(key string) bool {
	for _, g := range GradeOptions {
		if g.Key == key {
			return true
		}
	}
	return false
}

// GradeLabel returns the display label for a grade key, falling back to the
// raw key for values no longer in the set.
func GradeLabel(key string) string {
	for _, g := range GradeOptions {
		if g.Key == key {
			return g.Label
		}
	}
	return key
}

func GradePriority(key string) int {
	for _, g := range GradeOptions {
		if g.Key == key {
			return g.Priority
		}
	}
	return UnknownGradePriority
}
