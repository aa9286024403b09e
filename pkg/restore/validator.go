package restore

// FindReference returns the live node with the given id, searching the
// catalog depth first. Nil when the id is not in the catalog.
func FindReference(roots []*ReferenceNode, id string) *ReferenceNode {
	stack := make([]*ReferenceNode, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}
		if node.ID == id {
			return node
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
	return nil
}

// ValidateReference gates a saved reference against the live catalog. It
// returns saved unchanged when a node with the same id exists and is a usable
// query, and nil otherwise. The reference is never rewritten.
func ValidateReference(roots []*ReferenceNode, saved *Reference) *Reference {
	if saved == nil || saved.ID == "" {
		return nil
	}
	node := FindReference(roots, saved.ID)
	if node == nil || !node.IsValidQuery {
		return nil
	}
	return saved
}
