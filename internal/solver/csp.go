package solver

import (
	"fmt"
	"math"
	"reflect"
)

// Op — оператор структурированного ограничения.
type Op string

const (
	OpEq    Op = "eq"
	OpNeq   Op = "neq"
	OpLt    Op = "lt"
	OpLte   Op = "lte"
	OpGt    Op = "gt"
	OpGte   Op = "gte"
	OpSumEq Op = "sum_eq"

	// OpAllDifferent — все переменные Vars принимают разные значения.
	OpAllDifferent Op = "all_different"
)

// Assignment — присваивание значений переменным.
type Assignment map[string]any

// Constraint — ограничение CSP.
//
// Либо Check (типизированный предикат), либо Op над Vars.
// Бинарные операторы сравнивают две переменные или одну переменную с Value.
// Ограничение проверяется, когда все Vars присвоены; Check без Vars —
// только на полном присваивании.
type Constraint struct {
	Op    Op       `json:"op,omitempty"`
	Vars  []string `json:"vars"`
	Value any      `json:"value,omitempty"`

	Check func(Assignment) bool `json:"-"`
}

// CSP — задача удовлетворения ограничений.
type CSP struct {
	Variables   []string         `json:"variables"`
	Domains     map[string][]any `json:"domains"`
	Constraints []Constraint     `json:"constraints"`
}

// CSPResult — результат решения CSP.
type CSPResult struct {
	Solved     bool       `json:"solved"`
	Assignment Assignment `json:"assignment,omitempty"`
	Backtracks int        `json:"backtracks"`
}

// SolveCSP перебирает присваивания в глубину: переменные в порядке Variables,
// значения в порядке доменов. Возвращает первое согласованное присваивание.
//
// Ошибка возвращается только для невалидной задачи; исчерпание перебора
// даёт Solved=false.
func SolveCSP(p CSP) (CSPResult, error) {
	if err := p.validate(); err != nil {
		return CSPResult{}, err
	}

	s := &cspSearch{problem: p, assignment: make(Assignment, len(p.Variables))}
	if s.backtrack(0) {
		return CSPResult{Solved: true, Assignment: s.assignment, Backtracks: s.backtracks}, nil
	}
	return CSPResult{Solved: false, Backtracks: s.backtracks}, nil
}

func (p CSP) validate() error {
	known := make(map[string]bool, len(p.Variables))
	for _, v := range p.Variables {
		if known[v] {
			return fmt.Errorf("%w: duplicate variable %q", ErrInvalidParams, v)
		}
		known[v] = true
		if _, ok := p.Domains[v]; !ok {
			return fmt.Errorf("%w: variable %q has no domain", ErrInvalidParams, v)
		}
	}

	for i, c := range p.Constraints {
		for _, v := range c.Vars {
			if !known[v] {
				return fmt.Errorf("%w: constraint %d references unknown variable %q", ErrInvalidParams, i, v)
			}
		}
		if c.Check != nil {
			continue
		}
		switch c.Op {
		case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
			if len(c.Vars) == 0 || len(c.Vars) > 2 || (len(c.Vars) == 1 && c.Value == nil) {
				return fmt.Errorf("%w: constraint %d: %s needs two vars or one var and a value", ErrInvalidParams, i, c.Op)
			}
		case OpSumEq:
			if len(c.Vars) == 0 {
				return fmt.Errorf("%w: constraint %d: sum_eq needs vars", ErrInvalidParams, i)
			}
			if _, ok := toFloat(c.Value); !ok {
				return fmt.Errorf("%w: constraint %d: sum_eq needs a numeric value", ErrInvalidParams, i)
			}
		case OpAllDifferent:
		default:
			return fmt.Errorf("%w: constraint %d: unknown op %q", ErrInvalidParams, i, c.Op)
		}
	}
	return nil
}

type cspSearch struct {
	problem    CSP
	assignment Assignment
	backtracks int
}

func (s *cspSearch) backtrack(i int) bool {
	if i == len(s.problem.Variables) {
		return s.consistent(true)
	}

	name := s.problem.Variables[i]
	for _, value := range s.problem.Domains[name] {
		s.assignment[name] = value
		if s.consistent(false) && s.backtrack(i+1) {
			return true
		}
		delete(s.assignment, name)
	}
	s.backtracks++
	return false
}

// consistent проверяет ограничения, все переменные которых уже присвоены.
func (s *cspSearch) consistent(complete bool) bool {
	for _, c := range s.problem.Constraints {
		if len(c.Vars) == 0 && !complete {
			continue
		}
		ready := true
		for _, v := range c.Vars {
			if _, ok := s.assignment[v]; !ok {
				ready = false
				break
			}
		}
		if ready && !c.satisfied(s.assignment) {
			return false
		}
	}
	return true
}

func (c Constraint) satisfied(a Assignment) bool {
	if c.Check != nil {
		return c.Check(a)
	}

	switch c.Op {
	case OpSumEq:
		var sum float64
		for _, v := range c.Vars {
			f, ok := toFloat(a[v])
			if !ok {
				return false
			}
			sum += f
		}
		want, _ := toFloat(c.Value)
		return math.Abs(sum-want) < 1e-9

	case OpAllDifferent:
		for i := range c.Vars {
			for j := i + 1; j < len(c.Vars); j++ {
				if equalValues(a[c.Vars[i]], a[c.Vars[j]]) {
					return false
				}
			}
		}
		return true
	}

	left := a[c.Vars[0]]
	right := c.Value
	if len(c.Vars) == 2 {
		right = a[c.Vars[1]]
	}

	switch c.Op {
	case OpEq:
		return equalValues(left, right)
	case OpNeq:
		return !equalValues(left, right)
	}

	l, lok := toFloat(left)
	r, rok := toFloat(right)
	if !lok || !rok {
		return false
	}
	switch c.Op {
	case OpLt:
		return l < r
	case OpLte:
		return l <= r
	case OpGt:
		return l > r
	case OpGte:
		return l >= r
	}
	return false
}

func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

// toFloat приводит числовые значения (в том числе из JSON) к float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
