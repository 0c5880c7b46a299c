package ratelimit

import (
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
)

type tier struct {
	max    int
	window time.Duration
}

var categoryTiers = map[entity.Category]tier{
	entity.CategoryEngagement: {max: 30, window: 10 * time.Minute},
	entity.CategoryContent:    {max: 10, window: 30 * time.Minute},
	entity.CategorySystem:     {max: 5, window: 24 * time.Hour},
	entity.CategoryModeration: {max: 50, window: time.Hour},
}

// GlobalRule is the default per-user budget across all types.
func GlobalRule() Rule {
	return Rule{Scope: GlobalScope, MaxRequests: 100, Window: time.Hour, UserSpecific: true}
}

// DefaultRules builds GLOBAL plus one per-type rule sized by the type's category.
func DefaultRules(types []entity.NotificationType, category func(entity.NotificationType) (entity.Category, error)) []Rule {
	rules := []Rule{GlobalRule()}

	for _, t := range types {
		cat, err := category(t)
		if err != nil {
			continue
		}
		tr, ok := categoryTiers[cat]
		if !ok {
			continue
		}
		rules = append(rules, Rule{Scope: t.String(), MaxRequests: tr.max, Window: tr.window, UserSpecific: true})
	}

	return rules
}
