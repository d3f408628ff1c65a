// Package resolve maps the names players type to roster members and
// catalog items.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/engine/player"
	"github.com/nathoo/dpcq/engine/world"
)

// AmbiguityError indicates multiple candidates matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("which %s? (%s)", e.Name, strings.Join(e.Candidates, ", "))
}

// NotFoundError indicates nothing matched a name.
type NotFoundError struct {
	What string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s matches %q", e.What, e.Name)
}

// clean strips chat mention markers and surrounding brackets.
func clean(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, "@")
	ref = strings.TrimPrefix(ref, "【")
	ref = strings.TrimSuffix(ref, "】")
	return strings.TrimSpace(ref)
}

// Player resolves a reference to a roster member: exact id, then exact
// name ignoring case, then a unique name prefix.
func Player(w *world.World, ref string) (*player.Player, error) {
	name := clean(ref)
	if name == "" {
		return nil, &NotFoundError{What: "cultivator", Name: ref}
	}
	if p, ok := w.Player(name); ok {
		return p, nil
	}

	lower := strings.ToLower(name)
	var exact, prefix []*player.Player
	for _, p := range w.Roster() {
		pn := strings.ToLower(p.Name)
		switch {
		case pn == lower:
			exact = append(exact, p)
		case strings.HasPrefix(pn, lower):
			prefix = append(prefix, p)
		}
	}
	for _, matches := range [][]*player.Player{exact, prefix} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			names := make([]string, len(matches))
			for i, p := range matches {
				names[i] = fmt.Sprintf("%s(%s)", p.Name, p.ID)
			}
			return nil, &AmbiguityError{Name: name, Candidates: names}
		}
	}
	return nil, &NotFoundError{What: "cultivator", Name: name}
}

// Item resolves a reference among candidate item names: exact name,
// then a pill id, then a unique substring. Passing nil candidates
// searches the whole catalog.
func Item(t *catalog.Tables, ref string, candidates []string) (string, error) {
	name := clean(ref)
	if name == "" {
		return "", &NotFoundError{What: "item", Name: ref}
	}
	if candidates == nil {
		candidates = t.ItemNames()
	}
	set := map[string]bool{}
	for _, c := range candidates {
		set[c] = true
	}
	if set[name] {
		return name, nil
	}
	if p, ok := t.PillByID(name); ok && set[p.Name] {
		return p.Name, nil
	}

	var matches []string
	for c := range set {
		if strings.Contains(c, name) {
			matches = append(matches, c)
		}
	}
	sort.Strings(matches)
	switch len(matches) {
	case 0:
		return "", &NotFoundError{What: "item", Name: name}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}
