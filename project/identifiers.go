package project

// Identifiers assigns indices to named widgets. Every named widget gets its
// own index, in page order across the project and its imports, so two
// widgets never share one even when their names repeat on different pages.
type Identifiers struct {
	index map[*Widget]int
	names []string
}

// BuildIdentifiers indexes the named widgets of p.
func BuildIdentifiers(p *Project) *Identifiers {
	ids := &Identifiers{index: make(map[*Widget]int)}
	for _, page := range p.AllPages() {
		for _, w := range page.Widgets() {
			if w.Name == "" {
				continue
			}
			ids.index[w] = len(ids.names)
			ids.names = append(ids.names, w.Name)
		}
	}
	return ids
}

// Index returns the registry index of w.
func (ids *Identifiers) Index(w *Widget) (int, bool) {
	i, ok := ids.index[w]
	return i, ok
}

// MaxWidgetIndex is the highest assigned index, or -1 when none is.
func (ids *Identifiers) MaxWidgetIndex() int {
	return len(ids.names) - 1
}

// Names lists the identifier names in index order.
func (ids *Identifiers) Names() []string {
	return append([]string(nil), ids.names...)
}
