// Package actions decides what an action does. Every renderer and the
// validator select the create, list and get actions through this package;
// nothing else may carry its own name heuristics.
package actions

import (
	"strings"

	"orivus/internal/spec"
)

var (
	createVerbs = []string{"create", "add", "new", "register", "invite", "admit", "issue", "schedule"}
	updateVerbs = []string{"update", "edit", "modify", "change", "set", "assign", "move", "cancel", "archive"}
	deleteVerbs = []string{"delete", "remove", "destroy", "revoke", "unlink"}
	listVerbs   = []string{"list", "getall", "find", "search"}
	getVerbs    = []string{"get", "find", "fetch", "load", "show", "read"}
)

// rule is one row of the fallback table. Rows are tried in order and the
// first match wins.
type rule struct {
	kind  spec.ActionKind
	match func(a *spec.ParsedAction, name string) bool
}

func hasPrefix(verbs []string) func(*spec.ParsedAction, string) bool {
	return func(_ *spec.ParsedAction, name string) bool {
		for _, v := range verbs {
			if strings.HasPrefix(name, v) {
				return true
			}
		}
		return false
	}
}

func returnsModelList(a *spec.ParsedAction, _ string) bool {
	return a.Output.Kind == spec.OutputModel && a.Output.IsArray
}

func isCount(a *spec.ParsedAction, name string) bool {
	if strings.HasPrefix(name, "count") {
		return true
	}
	return a.Output.Kind == spec.OutputPrimitive && a.Output.Type == spec.TypeNumber
}

// classifyRules infers the kind of an action without an explicit type.
// Mutation verbs are checked first so that "addUsers" returning a list is
// still a create.
var classifyRules = []rule{
	{spec.KindCreate, hasPrefix(createVerbs)},
	{spec.KindUpdate, hasPrefix(updateVerbs)},
	{spec.KindDelete, hasPrefix(deleteVerbs)},
	{spec.KindList, returnsModelList},
	{spec.KindList, hasPrefix(listVerbs)},
	{spec.KindCount, isCount},
	{spec.KindGet, hasPrefix(getVerbs)},
}

// Classify returns the explicit kind of a, or the first matching row of the
// fallback table, or KindCustom.
func Classify(a spec.ParsedAction) spec.ActionKind {
	if a.Type != "" {
		return a.Type
	}
	name := strings.ToLower(a.Name)
	for _, r := range classifyRules {
		if r.match(&a, name) {
			return r.kind
		}
	}
	return spec.KindCustom
}

// IsMutation reports whether a changes data: routers expose it as a mutation
// rather than a query.
func IsMutation(a spec.ParsedAction) bool {
	switch Classify(a) {
	case spec.KindCreate, spec.KindUpdate, spec.KindDelete:
		return true
	}
	return false
}

// selector picks one action: explicit type first, then each heuristic tier in
// order over the untyped actions only.
type selector struct {
	kind  spec.ActionKind
	tiers []func(*spec.ParsedAction, string) bool
}

func (s selector) find(list []spec.ParsedAction) (*spec.ParsedAction, bool) {
	for i := range list {
		if list[i].Type == s.kind {
			return &list[i], true
		}
	}
	for _, tier := range s.tiers {
		for i := range list {
			if list[i].Type != "" {
				continue
			}
			if tier(&list[i], strings.ToLower(list[i].Name)) {
				return &list[i], true
			}
		}
	}
	return nil, false
}

var (
	createSelector = selector{
		kind:  spec.KindCreate,
		tiers: []func(*spec.ParsedAction, string) bool{hasPrefix(createVerbs)},
	}

	listSelector = selector{
		kind: spec.KindList,
		tiers: []func(*spec.ParsedAction, string) bool{
			returnsModelList,
			hasPrefix(listVerbs),
			func(_ *spec.ParsedAction, name string) bool {
				return strings.Contains(name, "list") || strings.Contains(name, "all")
			},
		},
	}

	getSelector = selector{
		kind: spec.KindGet,
		tiers: []func(*spec.ParsedAction, string) bool{
			func(a *spec.ParsedAction, name string) bool {
				return (strings.HasPrefix(name, "get") || strings.HasPrefix(name, "find")) && !a.Output.IsArray
			},
		},
	}
)

// FindCreate returns the action that creates the module's primary record.
func FindCreate(list []spec.ParsedAction) (*spec.ParsedAction, bool) {
	return createSelector.find(list)
}

// FindList returns the action that lists the module's records.
func FindList(list []spec.ParsedAction) (*spec.ParsedAction, bool) {
	return listSelector.find(list)
}

// FindGet returns the action that fetches a single record.
func FindGet(list []spec.ParsedAction) (*spec.ParsedAction, bool) {
	return getSelector.find(list)
}
