// Package stagetext serves the static question, guidance, and system-message
// text for each journey stage, keyed by stage id and locale. The catalogs are
// YAML files baked into the binary with go:embed; lookups for a locale that
// lacks an entry fall back to English.
package stagetext

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"venturemap/internal/catalog"
	"venturemap/internal/plan"
)

//go:embed locales
var localeFS embed.FS

type stageEntry struct {
	Question string `yaml:"question"`
	Guidance string `yaml:"guidance,omitempty"`
}

type bundle struct {
	Stages map[string]stageEntry `yaml:"stages"`
	System map[string]string     `yaml:"system"`
}

var (
	loadOnce sync.Once
	bundles  map[plan.Locale]*bundle
)

func load() {
	bundles = make(map[plan.Locale]*bundle)
	for _, loc := range []plan.Locale{plan.LocaleEN, plan.LocaleFA} {
		raw, err := localeFS.ReadFile(fmt.Sprintf("locales/%s.yaml", loc))
		if err != nil {
			panic(fmt.Sprintf("stagetext: missing embedded locale %s: %v", loc, err))
		}
		var b bundle
		if err := yaml.Unmarshal(raw, &b); err != nil {
			panic(fmt.Sprintf("stagetext: malformed locale %s: %v", loc, err))
		}
		bundles[loc] = &b
	}
}

func bundleFor(loc plan.Locale) *bundle {
	loadOnce.Do(load)
	if b, ok := bundles[loc]; ok {
		return b
	}
	return bundles[plan.LocaleEN]
}

// Question returns the question text shown when a stage becomes active.
// Falls back to English, then to a generic prompt naming the stage.
func Question(s catalog.Stage, loc plan.Locale) string {
	if e, ok := bundleFor(loc).Stages[string(s)]; ok && e.Question != "" {
		return e.Question
	}
	if e, ok := bundleFor(plan.LocaleEN).Stages[string(s)]; ok && e.Question != "" {
		return e.Question
	}
	return fmt.Sprintf("Tell me about: %s", s)
}

// Guidance returns optional coaching text preceding a stage's question.
func Guidance(s catalog.Stage, loc plan.Locale) (string, bool) {
	if e, ok := bundleFor(loc).Stages[string(s)]; ok && e.Guidance != "" {
		return e.Guidance, true
	}
	if loc != plan.LocaleEN {
		if e, ok := bundleFor(plan.LocaleEN).Stages[string(s)]; ok && e.Guidance != "" {
			return e.Guidance, true
		}
	}
	return "", false
}

// System returns a localized system-message string by key. Unknown keys
// return the key itself so a missing entry is visible rather than silent.
func System(key string, loc plan.Locale) string {
	if v, ok := bundleFor(loc).System[key]; ok && v != "" {
		return v
	}
	if v, ok := bundleFor(plan.LocaleEN).System[key]; ok && v != "" {
		return v
	}
	return key
}
