package core

import "btocore/pkg/domain"

type (
	// Rule aliases domain.Rule for callers registering custom policies.
	Rule = domain.Rule
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in invariant set.
// The rules re-check, at commit time, the invariants the service guards
// enforce before mutating.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewInventoryRule())
	engine.Register(NewOfficerSlotRule())
	engine.Register(NewSingleActiveApplicationRule())
	engine.Register(LifecycleTransitionRule())
	return engine
}

func changedKeys(changes []domain.Change, entity domain.EntityType) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, change := range changes {
		if change.Entity != entity || change.Action == domain.ActionDelete {
			continue
		}
		if _, ok := seen[change.Key]; ok {
			continue
		}
		seen[change.Key] = struct{}{}
		keys = append(keys, change.Key)
	}
	return keys
}
