package features

import "strings"

// CharNameResolver maps a characterization-output name onto the char_name of
// the task that produced it.
type CharNameResolver struct {
	// Aliases are checked first, keyed by lower-cased output name.
	Aliases map[string]string
	// UnderscoreAlias replaces any remaining name that contains "_".
	// Empty disables the rule.
	UnderscoreAlias string
}

func (r CharNameResolver) Resolve(name string) string {
	if to, ok := r.Aliases[strings.ToLower(name)]; ok {
		return to
	}
	if r.UnderscoreAlias != "" && strings.Contains(name, "_") {
		return r.UnderscoreAlias
	}
	return name
}
