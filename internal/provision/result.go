package provision

// ActionKind classifies what the applier did, or would do, to a resource.
type ActionKind string

const (
	ActionCreate    ActionKind = "create"
	ActionUpdate    ActionKind = "update"
	ActionUnchanged ActionKind = "unchanged"
)

// Action is one applier decision about a single resource.
type Action struct {
	Kind     ActionKind
	Resource string
	Name     string
	Detail   string
}

// Result collects the applier's decisions for one stack.
type Result struct {
	AccountID string
	StackName string
	DryRun    bool
	Actions   []Action
}

func (r *Result) record(kind ActionKind, resource, name, detail string) {
	r.Actions = append(r.Actions, Action{
		Kind:     kind,
		Resource: resource,
		Name:     name,
		Detail:   detail,
	})
}

// Count returns the number of recorded actions of the given kind.
func (r *Result) Count(kind ActionKind) int {
	total := 0
	for _, action := range r.Actions {
		if action.Kind == kind {
			total++
		}
	}
	return total
}
