package hyper

import "strconv"

// Purpose selects which bound dataset a mean or covariance function
// evaluates against. Each purpose is an independent evaluation context:
// binding data under one purpose never touches data cached under another.
type Purpose int

const (
	Sample Purpose = iota
	Learn
	Predict
	LearnPredict
)

var purposeNames = [...]string{"sample", "learn", "predict", "learn_predict"}

// Valid reports whether p is one of the defined purposes.
func (p Purpose) Valid() bool {
	return p >= Sample && p <= LearnPredict
}

func (p Purpose) String() string {
	if !p.Valid() {
		return "hyper.Purpose(" + strconv.Itoa(int(p)) + ")"
	}
	return purposeNames[p]
}
