package tree

import "sort"

// Plan describes the explicit membership rows a mutation must add and remove
// to preserve the minimality invariant. Insert scopes are post-move paths;
// delete scopes are pre-move paths, because the storage layer rewrites
// surviving rows' path prefixes itself as part of the item path update.
type Plan struct {
	Inserts []Grant
	Deletes []Grant
}

// IsEmpty reports whether the plan changes nothing.
func (p Plan) IsEmpty() bool {
	return len(p.Inserts) == 0 && len(p.Deletes) == 0
}

// PlanMove computes the membership reconciliation for moving the subtree
// rooted at before to after. The grants slice must contain, for every subject
// of interest, the explicit grants inside the moved subtree, the grants
// covering the old location, and the grants covering the new location.
//
// Two cases cannot be resolved by the storage cascade alone:
//
//   - a subject whose access at the old location was purely inherited loses
//     it once the subtree leaves the granting ancestor, so an explicit grant
//     at the new subtree root preserves the previously effective level;
//   - an explicit grant inside the subtree that the new ancestor chain
//     already matches or exceeds becomes redundant and is removed.
func PlanMove(before, after Path, grants []Grant) Plan {
	var plan Plan
	for _, subject := range subjects(grants) {
		planSubjectMove(&plan, subject, before, after, grants)
	}
	return plan
}

func planSubjectMove(plan *Plan, subject string, before, after Path, grants []Grant) {
	var inside []Grant   // explicit grants inside the moved subtree, root included
	var outside []Grant  // everything else for this subject
	explicitAtRoot := false
	for _, g := range grants {
		if g.Subject != subject {
			continue
		}
		if IsDescendantOrSelf(g.Scope, before) {
			inside = append(inside, g)
			if g.Scope == before {
				explicitAtRoot = true
			}
		} else {
			outside = append(outside, g)
		}
	}

	inheritedBefore := Effective(subject, before, outside).Level
	inheritedAfter := Effective(subject, after, outside).Level

	var inserted *Grant
	if !explicitAtRoot && inheritedBefore > LevelNone && inheritedAfter < inheritedBefore {
		g := Grant{Subject: subject, Scope: after, Level: inheritedBefore}
		plan.Inserts = append(plan.Inserts, g)
		inserted = &g
	}

	// Walk inside grants top-down so a deleted ancestor grant cannot keep a
	// descendant grant alive.
	sort.Slice(inside, func(i, j int) bool {
		return inside[i].Scope.Depth() < inside[j].Scope.Depth()
	})
	surviving := make([]Grant, 0, len(inside)+1)
	if inserted != nil {
		surviving = append(surviving, *inserted)
	}
	for _, g := range inside {
		scopeAfter := g.Scope.Rebase(before, after)
		covering := Effective(subject, scopeAfter, outside).Level
		for _, s := range surviving {
			if s.Scope != scopeAfter && IsDescendantOrSelf(scopeAfter, s.Scope) && s.Level > covering {
				covering = s.Level
			}
		}
		if covering >= g.Level {
			plan.Deletes = append(plan.Deletes, g)
			continue
		}
		surviving = append(surviving, Grant{Subject: subject, Scope: scopeAfter, Level: g.Level})
	}
}

// PlanGrant computes the rows to add and remove when explicitly sharing the
// subtree at grant.Scope. A grant already matched or exceeded by inheritance
// is rejected as redundant; descendant grants the new one subsumes are
// removed.
func PlanGrant(grant Grant, existing []Grant) (Plan, error) {
	var plan Plan
	var above []Grant
	for _, g := range existing {
		if g.Subject != grant.Subject {
			continue
		}
		if g.Scope == grant.Scope {
			if g.Level == grant.Level {
				return Plan{}, ErrRedundantGrant
			}
			plan.Deletes = append(plan.Deletes, g)
			continue
		}
		if IsDescendantOrSelf(grant.Scope, g.Scope) {
			above = append(above, g)
		} else if IsDescendantOrSelf(g.Scope, grant.Scope) && g.Level <= grant.Level {
			plan.Deletes = append(plan.Deletes, g)
		}
	}
	if Effective(grant.Subject, grant.Scope, above).Level >= grant.Level {
		return Plan{}, ErrRedundantGrant
	}
	plan.Inserts = append(plan.Inserts, grant)
	return plan, nil
}

func subjects(grants []Grant) []string {
	seen := make(map[string]struct{}, len(grants))
	var out []string
	for _, g := range grants {
		if _, ok := seen[g.Subject]; ok {
			continue
		}
		seen[g.Subject] = struct{}{}
		out = append(out, g.Subject)
	}
	sort.Strings(out)
	return out
}
