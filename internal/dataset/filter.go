package dataset

// AllProviders is the selector value that disables provider filtering.
const AllProviders = "All"

// Filter returns the rows whose provider equals selector exactly, or the
// whole table for AllProviders. An unknown provider yields an empty table.
func (t *Table) Filter(selector string) *Table {
	if selector == AllProviders {
		return t
	}

	var rows []Row
	for _, r := range t.rows {
		if r.Provider == selector {
			rows = append(rows, r)
		}
	}
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Providers returns the distinct provider names in order of first appearance.
// Rows without a provider name are skipped.
func (t *Table) Providers() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range t.rows {
		if r.Provider == "" {
			continue
		}
		if _, ok := seen[r.Provider]; ok {
			continue
		}
		seen[r.Provider] = struct{}{}
		names = append(names, r.Provider)
	}
	return names
}

// HasProvider reports whether any row belongs to name.
func (t *Table) HasProvider(name string) bool {
	for _, r := range t.rows {
		if r.Provider == name {
			return true
		}
	}
	return false
}
