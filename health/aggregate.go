package health

// EffectiveStatus returns the worst status found in the subtree rooted at n.
func EffectiveStatus(n *Node) Status {
	if n == nil {
		return StatusHealthy
	}
	worst := n.Status
	for _, e := range n.Entries {
		if s := EffectiveStatus(e); s > worst {
			worst = s
		}
	}
	return worst
}

// Aggregate returns a copy of the tree in which every node carries its
// effective status. Children are resolved before their parent. The input
// tree is left untouched.
func Aggregate(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp := *n
	if len(n.Entries) > 0 {
		cp.Entries = make([]*Node, len(n.Entries))
		for i, e := range n.Entries {
			cp.Entries[i] = Aggregate(e)
			if cp.Entries[i].Status > cp.Status {
				cp.Status = cp.Entries[i].Status
			}
		}
	}
	return &cp
}
