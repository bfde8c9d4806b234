package system

import (
	"errors"
	"fmt"
)

// UnknownReferenceError is a before/after target that names neither a
// declared system nor a set any system belongs to.
type UnknownReferenceError struct {
	System string
	Target string
}

func (e *UnknownReferenceError) Error() string {
	kind := "system"
	if IsSetID(e.Target) {
		kind = "set"
	}
	return fmt.Sprintf("system %q references unknown %s %q", e.System, kind, e.Target)
}

// ValidateReferences checks every before/after target against the declared
// systems and sets. Violations are joined in declaration order.
func ValidateReferences(systems []Info) error {
	names := make(map[string]struct{}, len(systems))
	sets := make(map[string]struct{})
	for _, s := range systems {
		names[s.Name] = struct{}{}
		for _, set := range s.Sets {
			sets[SetID(set)] = struct{}{}
		}
	}

	known := func(target string) bool {
		if IsSetID(target) {
			_, ok := sets[target]
			return ok
		}
		_, ok := names[target]
		return ok
	}

	var errs []error
	for _, s := range systems {
		for _, target := range s.Before {
			if !known(target) {
				errs = append(errs, &UnknownReferenceError{System: s.Name, Target: target})
			}
		}
		for _, target := range s.After {
			if !known(target) {
				errs = append(errs, &UnknownReferenceError{System: s.Name, Target: target})
			}
		}
	}
	return errors.Join(errs...)
}
