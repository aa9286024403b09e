package restore

// SuiteExpansion carries both views of a suite selection: the flattened scope
// the document generator consumes and the exact picks the UI re-renders.
type SuiteExpansion struct {
	TestSuiteArray              []int `json:"testSuiteArray"`
	NonRecursiveTestSuiteIDList []int `json:"nonRecursiveTestSuiteIdList"`
}

// ExpandSuites computes every suite reachable from the selected roots. Each id
// appears once in TestSuiteArray even when roots overlap or the parent
// pointers form a cycle. NonRecursiveTestSuiteIDList keeps the roots exactly as
// picked, duplicates included.
func ExpandSuites(selectedRoots []SuiteRef, allSuites []SuiteNode) SuiteExpansion {
	children := make(map[int][]int, len(allSuites))
	for _, s := range allSuites {
		if s.ParentID == nil {
			continue
		}
		children[*s.ParentID] = append(children[*s.ParentID], s.ID)
	}

	result := SuiteExpansion{
		TestSuiteArray:              make([]int, 0, len(selectedRoots)),
		NonRecursiveTestSuiteIDList: make([]int, 0, len(selectedRoots)),
	}
	seen := make(map[int]struct{}, len(allSuites))

	for _, root := range selectedRoots {
		result.NonRecursiveTestSuiteIDList = append(result.NonRecursiveTestSuiteIDList, root.ID)

		stack := []int{root.ID}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			result.TestSuiteArray = append(result.TestSuiteArray, id)

			kids := children[id]
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, kids[i])
			}
		}
	}

	return result
}

// SuiteRefs maps raw ids to SuiteRef values, keeping order.
func SuiteRefs(ids []int) []SuiteRef {
	refs := make([]SuiteRef, len(ids))
	for i, id := range ids {
		refs[i] = SuiteRef{ID: id}
	}
	return refs
}
