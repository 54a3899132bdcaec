package ledger

// DedupeLinks returns links with at most one record per link ID, preserving
// first-seen order. A single expand call can return the same edge once per
// traversal path that reaches it, so this runs on every raw kernel response
// before anything classifies or builds trees from it.
func DedupeLinks(links []Link) []Link {
	if len(links) == 0 {
		return []Link{}
	}

	seen := make(map[string]struct{}, len(links))
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l.ID]; ok {
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Dedupe returns a copy of the result with duplicate links, role assignments
// and materials removed by their IDs (first-seen order). Nodes are kept
// last-write-wins, in first-seen position.
func (r *ExpandResult) Dedupe() *ExpandResult {
	if r == nil {
		return &ExpandResult{}
	}

	out := &ExpandResult{
		Links:     DedupeLinks(r.Links),
		Nodes:     make([]Node, 0, len(r.Nodes)),
		Roles:     make([]RoleAssignment, 0, len(r.Roles)),
		Materials: make([]Material, 0, len(r.Materials)),
	}

	nodePos := make(map[string]int, len(r.Nodes))
	for _, n := range r.Nodes {
		if i, ok := nodePos[n.ID]; ok {
			out.Nodes[i] = n
			continue
		}
		nodePos[n.ID] = len(out.Nodes)
		out.Nodes = append(out.Nodes, n)
	}

	seenRoles := make(map[string]struct{}, len(r.Roles))
	for _, ra := range r.Roles {
		if _, ok := seenRoles[ra.ID]; ok {
			continue
		}
		seenRoles[ra.ID] = struct{}{}
		out.Roles = append(out.Roles, ra)
	}

	seenMaterials := make(map[string]struct{}, len(r.Materials))
	for _, m := range r.Materials {
		if _, ok := seenMaterials[m.ID]; ok {
			continue
		}
		seenMaterials[m.ID] = struct{}{}
		out.Materials = append(out.Materials, m)
	}

	return out
}
