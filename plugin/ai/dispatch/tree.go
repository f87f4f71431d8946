// Package dispatch defines the static module → submodule → intent hierarchy
// the bot routes conversations through, plus the action types each intent is
// allowed to emit. The tree is built once at startup and never mutated; every
// classifier output is validated against it before any side effect runs.
package dispatch

import (
	"fmt"
	"sort"
	"strings"
)

// ActionType identifies a data-mutating operation a classification may carry.
type ActionType string

const (
	ActionAddWhitelist    ActionType = "add_whitelist"
	ActionRemoveWhitelist ActionType = "remove_whitelist"
)

// Module and submodule names.
const (
	ModuleBase = "Base"
	ModuleMeal = "Meal"

	SubmoduleMain     = "Main"
	SubmoduleSettings = "Settings"
)

// Intent names.
const (
	IntentGreet           = "Greet"
	IntentAsk             = "Ask"
	IntentOther           = "Other"
	IntentCreateWhitelist = "Create whitelist"
	IntentReadWhitelist   = "Read whitelist"
	IntentDeleteWhitelist = "Delete whitelist"
)

// Tree is the immutable dispatch hierarchy.
type Tree struct {
	modules       map[string]map[string][]string
	intentActions map[string][]ActionType
}

// Default builds the dispatch tree for the bot's current module set.
// Adding a module means adding an entry here plus a handler table entry in
// the bot package.
func Default() *Tree {
	return &Tree{
		modules: map[string]map[string][]string{
			ModuleBase: {
				SubmoduleMain:     {IntentGreet, IntentAsk, IntentOther},
				SubmoduleSettings: {IntentCreateWhitelist, IntentReadWhitelist, IntentDeleteWhitelist},
			},
			ModuleMeal: {
				SubmoduleMain: {IntentOther},
			},
		},
		intentActions: map[string][]ActionType{
			IntentCreateWhitelist: {ActionAddWhitelist},
			IntentDeleteWhitelist: {ActionRemoveWhitelist},
		},
	}
}

// ValidPair reports whether (module, submodule) names a state in the tree.
func (t *Tree) ValidPair(module, submodule string) bool {
	submodules, ok := t.modules[module]
	if !ok {
		return false
	}
	_, ok = submodules[submodule]
	return ok
}

// ValidPath reports whether (module, submodule, intent) is a complete path.
func (t *Tree) ValidPath(module, submodule, intent string) bool {
	submodules, ok := t.modules[module]
	if !ok {
		return false
	}
	for _, candidate := range submodules[submodule] {
		if candidate == intent {
			return true
		}
	}
	return false
}

// ActionsAllowed returns the action types the intent may legitimately emit.
// Most intents allow none.
func (t *Tree) ActionsAllowed(intent string) []ActionType {
	return t.intentActions[intent]
}

// ActionAllowed reports whether the intent may emit the given action type.
func (t *Tree) ActionAllowed(intent string, action ActionType) bool {
	for _, allowed := range t.intentActions[intent] {
		if allowed == action {
			return true
		}
	}
	return false
}

// RequiresAction reports whether a classification naming this intent must
// carry at least one action. An intent with an action mapping but an empty
// action list is a contract violation.
func (t *Tree) RequiresAction(intent string) bool {
	return len(t.intentActions[intent]) > 0
}

// KnownAction reports whether the action type exists anywhere in the tree.
func (t *Tree) KnownAction(action ActionType) bool {
	for _, actions := range t.intentActions {
		for _, candidate := range actions {
			if candidate == action {
				return true
			}
		}
	}
	return false
}

// Vocabulary serializes the hierarchy for inclusion in the classifier prompt.
// Output is deterministic so prompts are cache-friendly.
func (t *Tree) Vocabulary() string {
	moduleNames := make([]string, 0, len(t.modules))
	for name := range t.modules {
		moduleNames = append(moduleNames, name)
	}
	sort.Strings(moduleNames)

	var b strings.Builder
	for _, module := range moduleNames {
		fmt.Fprintf(&b, "- Module: %s\n", module)
		submoduleNames := make([]string, 0, len(t.modules[module]))
		for name := range t.modules[module] {
			submoduleNames = append(submoduleNames, name)
		}
		sort.Strings(submoduleNames)
		for _, submodule := range submoduleNames {
			fmt.Fprintf(&b, "  - Submodule: %s | Intents: %s\n",
				submodule, strings.Join(t.modules[module][submodule], ", "))
		}
	}
	return b.String()
}
