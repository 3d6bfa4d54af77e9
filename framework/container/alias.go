package container

import "sync"

// aliasTable maps alias names to the abstraction they stand for.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
type aliasTable struct {
	mu      sync.RWMutex
	aliases map[string]string
}

func newAliasTable() *aliasTable {
	return &aliasTable{aliases: make(map[string]string)}
}

// set registers name → target. Re-registering overwrites; name == target is ignored.
func (t *aliasTable) set(name, target string) {
	if name == target {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aliases[name] = target
}

// remove drops the alias called name, reporting whether one existed.
func (t *aliasTable) remove(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.aliases[name]
	delete(t.aliases, name)
	return ok
}

func (t *aliasTable) isAlias(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.aliases[name]
	return ok
}

// resolve follows the alias chain starting at name and returns the canonical
// abstraction. A chain longer than the table itself must loop, so it fails
// with a CircularAliasError instead of spinning.
func (t *aliasTable) resolve(name string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	current := name
	for hops := 0; ; hops++ {
		target, ok := t.aliases[current]
		if !ok {
			return current, nil
		}
		if hops >= len(t.aliases) {
			return current, &CircularAliasError{Name: name}
		}
		current = target
	}
}

// canonical is resolve for callers that only need a best-effort key.
func (t *aliasTable) canonical(name string) string {
	key, _ := t.resolve(name)
	return key
}

func (t *aliasTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aliases = make(map[string]string)
}
