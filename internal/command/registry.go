package command

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/udisondev/mudcore/internal/errs"
	"github.com/udisondev/mudcore/internal/parser"
)

// Registry holds the registered commands.
// Thread-safe: lookups copy the Info out before releasing the lock.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Info  // name → info
	aliases  map[string]string // alias → name
	// words is every name and alias, kept for abbreviation matching.
	words  []string
	parser *parser.Parser
}

// NewRegistry creates an empty registry. p resolves abbreviations and
// typos; nil uses parser.DefaultConfig.
func NewRegistry(p *parser.Parser) *Registry {
	if p == nil {
		p = parser.New(parser.DefaultConfig())
	}
	return &Registry{
		commands: make(map[string]*Info, 64),
		aliases:  make(map[string]string, 32),
		parser:   p,
	}
}

// Register adds a command. A name or alias colliding with any existing
// name or alias fails with AlreadyExists and leaves the registry unchanged.
func (r *Registry) Register(info Info) error {
	info = info.normalized()
	if info.Name == "" {
		return errs.InvalidArgumentf("command name is empty")
	}
	if strings.ContainsFunc(info.Name, isSpace) {
		return errs.InvalidArgumentf("command name %q contains whitespace", info.Name)
	}
	if info.Handler == nil {
		return errs.InvalidArgumentf("command %q has no handler", info.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.takenLocked(info.Name) {
		return errs.New(errs.CodeAlreadyExists, "command "+info.Name+" is already registered").
			WithMeta("name", info.Name)
	}
	seen := map[string]bool{info.Name: true}
	for _, a := range info.Aliases {
		if seen[a] || r.takenLocked(a) {
			return errs.New(errs.CodeAlreadyExists, "alias "+a+" of "+info.Name+" is already registered").
				WithMeta("name", info.Name).
				WithMeta("alias", a)
		}
		seen[a] = true
	}

	stored := info.clone()
	r.commands[info.Name] = &stored
	for _, a := range info.Aliases {
		r.aliases[a] = info.Name
	}
	r.rebuildWordsLocked()
	return nil
}

// Unregister removes a command and its aliases.
func (r *Registry) Unregister(name string) bool {
	name = strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.commands[name]
	if !ok {
		return false
	}
	for _, a := range info.Aliases {
		delete(r.aliases, a)
	}
	delete(r.commands, name)
	r.rebuildWordsLocked()
	return true
}

func (r *Registry) takenLocked(word string) bool {
	if _, ok := r.commands[word]; ok {
		return true
	}
	_, ok := r.aliases[word]
	return ok
}

func (r *Registry) rebuildWordsLocked() {
	r.words = r.words[:0]
	for name := range r.commands {
		r.words = append(r.words, name)
	}
	for alias := range r.aliases {
		r.words = append(r.words, alias)
	}
	slices.Sort(r.words)
}

// Lookup finds a command by exact name or alias.
func (r *Registry) Lookup(word string) (Info, bool) {
	word = strings.ToLower(word)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(word)
}

func (r *Registry) lookupLocked(word string) (Info, bool) {
	if info, ok := r.commands[word]; ok {
		return info.clone(), true
	}
	if name, ok := r.aliases[word]; ok {
		return r.commands[name].clone(), true
	}
	return Info{}, false
}

// Resolve finds a command by exact name, alias, abbreviation or a close
// misspelling, in that order.
func (r *Registry) Resolve(word string) (Info, parser.MatchKind, bool) {
	word = strings.ToLower(word)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if info, ok := r.lookupLocked(word); ok {
		return info, parser.MatchExact, true
	}
	m, ok := r.parser.Match(word, r.words)
	if !ok {
		return Info{}, parser.MatchNone, false
	}
	info, ok := r.lookupLocked(m.Name)
	return info, m.Kind, ok
}

// Commands returns every command sorted by name.
func (r *Registry) Commands() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.commands))
	for _, info := range r.commands {
		out = append(out, info.clone())
	}
	slices.SortFunc(out, func(a, b Info) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Categories returns command names grouped by category.
func (r *Registry) Categories() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string)
	for _, name := range slices.Sorted(maps.Keys(r.commands)) {
		cat := r.commands[name].Category
		out[cat] = append(out[cat], name)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
