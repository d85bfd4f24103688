// Package hyper provides the named hyperparameter sets and data-purpose
// tags shared by mean and covariance functions.
package hyper

const (
	nilValue  = "hyper: nil variable value pointer"
	dupName   = "hyper: duplicate variable name"
	dupRole   = "hyper: duplicate owner role"
	badLength = "hyper: value length mismatch"
)

// Var is a single named hyperparameter. Val points into the owning
// function object, so writes through a Var are visible to the owner
// immediately.
type Var struct {
	Name  string
	Val   *float64
	Fixed bool
}

// Vars is an ordered hyperparameter set. The order is declaration order
// and is the order gradients are reported in.
type Vars struct {
	vars []Var
}

// NewVars builds a set from vs, preserving order. Duplicate names and
// nil value pointers panic.
func NewVars(vs ...Var) *Vars {
	s := &Vars{vars: make([]Var, 0, len(vs))}
	for _, v := range vs {
		s.Add(v)
	}
	return s
}

// Add appends v to the set.
func (s *Vars) Add(v Var) {
	if v.Val == nil {
		panic(nilValue)
	}
	for _, u := range s.vars {
		if u.Name == v.Name {
			panic(dupName + " " + v.Name)
		}
	}
	s.vars = append(s.vars, v)
}

func (s *Vars) Len() int {
	return len(s.vars)
}

// At returns the i-th variable in declaration order.
func (s *Vars) At(i int) Var {
	return s.vars[i]
}

// Names returns the variable names in declaration order.
func (s *Vars) Names() []string {
	names := make([]string, len(s.vars))
	for i, v := range s.vars {
		names[i] = v.Name
	}
	return names
}

// Values returns a copy of the current variable values in declaration
// order.
func (s *Vars) Values() []float64 {
	vals := make([]float64, len(s.vars))
	for i, v := range s.vars {
		vals[i] = *v.Val
	}
	return vals
}

// SetValues writes x through the variable pointers, updating the owning
// function objects in place.
func (s *Vars) SetValues(x []float64) {
	if len(x) != len(s.vars) {
		panic(badLength)
	}
	for i, v := range s.vars {
		*v.Val = x[i]
	}
}

// Value returns the current value of the named variable.
func (s *Vars) Value(name string) float64 {
	return *s.lookup(name).Val
}

// Fix marks the named variable as not tunable.
func (s *Vars) Fix(name string) {
	s.lookup(name).Fixed = true
}

// Unfix marks the named variable as tunable.
func (s *Vars) Unfix(name string) {
	s.lookup(name).Fixed = false
}

func (s *Vars) lookup(name string) *Var {
	for i := range s.vars {
		if s.vars[i].Name == name {
			return &s.vars[i]
		}
	}
	panic("hyper: unknown variable " + name)
}

// Free returns the tunable subset in declaration order. The subset
// shares value storage with s but not fixed flags.
func (s *Vars) Free() *Vars {
	free := &Vars{}
	for _, v := range s.vars {
		if !v.Fixed {
			free.vars = append(free.vars, v)
		}
	}
	return free
}

// Group pairs an owner role with that owner's variables for Merge.
type Group struct {
	Role string
	Vars *Vars
}

// Merge flattens groups into a single ordered set, qualifying every
// name with its owner role ("mean.offset"). Group order is preserved,
// then each owner's declaration order. The merged variables share
// value storage with their owners.
func Merge(groups ...Group) *Vars {
	merged := &Vars{}
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if seen[g.Role] {
			panic(dupRole + " " + g.Role)
		}
		seen[g.Role] = true
		for i := 0; i < g.Vars.Len(); i++ {
			v := g.Vars.At(i)
			v.Name = g.Role + "." + v.Name
			merged.Add(v)
		}
	}
	return merged
}
