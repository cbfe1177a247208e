package tarspan

import "fmt"

// Policy selects how a packing run reacts to an entry it cannot admit.
type Policy uint8

const (
	// PolicyAbort stops the run with an error. No further segment bytes
	// are written after the decision.
	PolicyAbort Policy = iota

	// PolicySkip drops the entry, records it in Result.Skipped, and
	// continues with the rest of the input.
	PolicySkip

	// PolicyDefer routes the entry to the continuation list instead of
	// failing. Only meaningful for oversize entries; a deferred oversize
	// entry can be retried against a run with a larger capacity.
	PolicyDefer
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicySkip:
		return "skip"
	case PolicyDefer:
		return "defer"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a policy name to its value.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "abort":
		return PolicyAbort, nil
	case "skip":
		return PolicySkip, nil
	case "defer":
		return PolicyDefer, nil
	default:
		return 0, fmt.Errorf("tarspan: unknown policy %q", s)
	}
}
