package manifest

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Constraint is a single version comparison within a requirement specifier,
// e.g. ">=1.0" or "~=2.1".
type Constraint struct {
	Op      string
	Version string
}

func (c Constraint) String() string {
	return c.Op + c.Version
}

var knownOps = []string{"===", "~=", "==", "!=", "<=", ">=", "<", ">"}

func parseConstraints(spec string) ([]Constraint, error) {
	retv := make([]Constraint, 0)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var op string
		for _, candidate := range knownOps {
			if strings.HasPrefix(part, candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return nil, errors.Errorf("version constraint %q has no comparison operator", part)
		}
		version := strings.TrimSpace(strings.TrimPrefix(part, op))
		if version == "" {
			return nil, errors.Errorf("version constraint %q has no version", part)
		}
		retv = append(retv, Constraint{Op: op, Version: version})
	}
	return retv, nil
}

// Semver translates the requirement's constraints into a semver constraint
// set. The pip operators map onto semver ranges: "==" becomes an exact
// match, "~=" a tilde range, and the comparison operators carry over.
func (r *Requirement) Semver() (*semver.Constraints, error) {
	if len(r.Constraints) == 0 {
		return semver.NewConstraint("*")
	}
	parts := make([]string, len(r.Constraints))
	for i, c := range r.Constraints {
		switch c.Op {
		case "==", "===":
			parts[i] = "=" + c.Version
		case "~=":
			parts[i] = "~" + c.Version
		default:
			parts[i] = c.Op + c.Version
		}
	}
	cons, err := semver.NewConstraint(strings.Join(parts, ", "))
	if err != nil {
		return nil, errors.Wrapf(err, "requirement %s", r.Name)
	}
	return cons, nil
}

// Matches reports whether the given version satisfies the requirement's
// constraints. An unparseable version never matches a constrained
// requirement.
func (r *Requirement) Matches(version string) bool {
	if len(r.Constraints) == 0 {
		return true
	}
	cons, err := r.Semver()
	if err != nil {
		return false
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return cons.Check(v)
}
