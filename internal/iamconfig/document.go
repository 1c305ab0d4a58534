package iamconfig

// StripEmptyConditions removes empty Condition blocks from every statement
// of a policy document. AWS serializes statements without conditions as
// `"Condition": {}` in some code paths, and the provisioning pipeline
// rejects the empty block.
func StripEmptyConditions(document map[string]any) map[string]any {
	statements, ok := document["Statement"].([]any)
	if !ok {
		return document
	}
	for _, raw := range statements {
		statement, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if condition, ok := statement["Condition"].(map[string]any); ok && len(condition) == 0 {
			delete(statement, "Condition")
		}
	}
	return document
}
