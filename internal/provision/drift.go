package provision

import (
	"encoding/json"
	"sort"

	"github.com/micahhausler/aws-iam-policy/policy"
)

// DocumentsEquivalent reports whether two policy documents carry the same
// grants once parsed into the policy model, with each statement's actions
// sorted. A document that fails to parse always counts as drifted.
func DocumentsEquivalent(live, desired string) bool {
	a, err := canonicalPolicy(live)
	if err != nil {
		return false
	}
	b, err := canonicalPolicy(desired)
	if err != nil {
		return false
	}
	return a == b
}

func canonicalPolicy(document string) (string, error) {
	pol := policy.Policy{}
	if err := json.Unmarshal([]byte(document), &pol); err != nil {
		return "", err
	}

	if pol.Statements != nil {
		statements := pol.Statements.Values()
		for i := range statements {
			if statements[i].Action != nil {
				sort.Strings(statements[i].Action.Values())
			}
		}
	}

	out, err := json.Marshal(&pol)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
