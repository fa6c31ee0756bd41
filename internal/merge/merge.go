// Package merge collapses place lists from multiple sources into one
// canonical list keyed by a normalized name+address slug.
package merge

import (
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/model"
)

// Options tunes the fold policy.
type Options struct {
	// PreferredSource always wins over a record from any other source at the
	// same key, regardless of completeness. Used to let the curated guide
	// override the aggregate listing. Empty disables the override.
	PreferredSource string
}

// Places folds the given lists in order and returns one place per merge key,
// preserving first-occurrence insertion order. A record whose address is
// empty shares identity with an addressed record of the same name, so the
// addressed one can supersede it (and vice versa fold order still yields the
// complete record). Replacement is whole-record, never field-by-field.
func Places(opts Options, lists ...[]model.Place) []model.Place {
	byKey := make(map[string]int)  // full merge key -> index in out
	byName := make(map[string]int) // name slug -> first index with that name
	var out []model.Place

	for _, list := range lists {
		for _, p := range list {
			key := p.Key()
			name := model.Slug(p.Name)

			at, matched := byKey[key]
			if !matched {
				// An address-less record and an addressed one with the same
				// name are the same place; two different addresses are not.
				if i, ok := byName[name]; ok && (out[i].Address == "" || p.Address == "") {
					at, matched = i, true
				}
			}

			if !matched {
				byKey[key] = len(out)
				if _, ok := byName[name]; !ok {
					byName[name] = len(out)
				}
				out = append(out, p)
				continue
			}

			if supersedes(out[at], p, opts) {
				zap.L().Debug("merge: replacing record",
					zap.String("key", key),
					zap.String("kept_source", p.Source),
					zap.String("dropped_source", out[at].Source),
				)
				out[at] = p
				byKey[p.Key()] = at
			}
		}
	}

	return out
}

// supersedes decides whether incoming replaces existing: the preferred
// source always wins; otherwise the incoming record wins only when it fills
// a completeness gap (address, both coordinates, or URL).
func supersedes(existing, incoming model.Place, opts Options) bool {
	if opts.PreferredSource != "" && incoming.Source != existing.Source {
		if incoming.Source == opts.PreferredSource {
			return true
		}
		if existing.Source == opts.PreferredSource {
			return false
		}
	}

	if existing.Address == "" && incoming.Address != "" {
		return true
	}
	if !existing.HasCoords() && incoming.HasCoords() {
		return true
	}
	if existing.URL == "" && incoming.URL != "" {
		return true
	}
	return false
}
