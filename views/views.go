// Package views holds the site's page and fragment components. Markup is
// written in .templ files; run `templ generate` after editing them.
package views

// IsLoading reports whether the section should render its skeleton.
func (s Section) IsLoading() bool { return s.State == Loading }

// IsFailed reports whether the section should render its error state.
func (s Section) IsFailed() bool { return s.State == Failed }

// IsSelected reports whether the project with id is the expanded one.
func (p Portfolio) IsSelected(id string) bool {
	return p.Selected != nil && p.Selected.ID == id
}
