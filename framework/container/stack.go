package container

import "strings"

// frame is one abstraction under construction. concrete is set once the
// binding has been resolved to a class.
type frame struct {
	abstraction string
	concrete    string
	binding     *binding
}

// scope is the name contextual bindings are looked up under.
func (f frame) scope() string {
	if f.concrete != "" {
		return f.concrete
	}
	return f.abstraction
}

// constructionStack tracks a single thread of resolution. It is owned by one
// top-level call and never shared between goroutines.
type constructionStack struct {
	frames []frame
}

func (s *constructionStack) push(abstraction string, b *binding) {
	s.frames = append(s.frames, frame{abstraction: abstraction, binding: b})
}

func (s *constructionStack) pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// setConcrete records the class being built for the top frame.
func (s *constructionStack) setConcrete(name string) {
	if len(s.frames) > 0 {
		s.frames[len(s.frames)-1].concrete = name
	}
}

func (s *constructionStack) top() (frame, bool) {
	if s == nil || len(s.frames) == 0 {
		return frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// scopes returns the names a contextual binding may be registered under for
// the top frame: the concrete class first, then the requested abstraction.
func (s *constructionStack) scopes() []string {
	f, ok := s.top()
	if !ok {
		return nil
	}
	if f.concrete != "" && f.concrete != f.abstraction {
		return []string{f.concrete, f.abstraction}
	}
	return []string{f.abstraction}
}

// building reports whether b is already being instantiated. The same
// abstraction may legitimately appear twice when a contextual binding
// redirects it; the same binding may not.
func (s *constructionStack) building(b *binding) bool {
	if s == nil {
		return false
	}
	for _, f := range s.frames {
		if f.binding == b {
			return true
		}
	}
	return false
}

// hasConcrete reports whether class name is being built in the first limit frames.
func (s *constructionStack) hasConcrete(name string, limit int) bool {
	if s == nil {
		return false
	}
	for _, f := range s.frames[:min(limit, len(s.frames))] {
		if f.concrete == name {
			return true
		}
	}
	return false
}

func (s *constructionStack) depth() int {
	if s == nil {
		return 0
	}
	return len(s.frames)
}

// path lists the scopes of the first limit frames followed by next, the
// chain rendered as "A -> B -> A" in a CircularDependencyError.
func (s *constructionStack) path(limit int, next string) []string {
	out := make([]string, 0, limit+1)
	if s != nil {
		for _, f := range s.frames[:min(limit, len(s.frames))] {
			out = append(out, f.scope())
		}
	}
	return append(out, next)
}

func joinPath(path []string) string {
	return strings.Join(path, " -> ")
}
