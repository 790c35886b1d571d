package mapview

// Scope collects release functions for resources acquired against a surface
// and runs them in reverse order on Close.
type Scope struct {
	releases []func()
}

// Defer registers fn to run when the scope closes.
func (s *Scope) Defer(fn func()) {
	s.releases = append(s.releases, fn)
}

// Close runs every registered release in LIFO order. Calling Close again is a no-op.
func (s *Scope) Close() {
	for i := len(s.releases) - 1; i >= 0; i-- {
		s.releases[i]()
	}
	s.releases = nil
}
