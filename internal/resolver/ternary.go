package resolver

// Ternary is a three-valued answer to a type query. Unknown is the zero
// value so an unanswered query never accidentally reads as No.
type Ternary int

const (
	Unknown Ternary = iota
	Yes
	No
)

func (t Ternary) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}
