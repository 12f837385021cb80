package ontology

import "errors"

// Style describes a target culinary identity. It may carry an explicit
// ingredient allow-list, a set of representative ingredients from which a
// concept vector is derived, or both. The allow-list drives categorical
// adaptation; the representatives drive latent adaptation.
type Style struct {
	Name            string   `json:"name"`
	AllowList       []string `json:"allow_list,omitempty"`
	Representatives []string `json:"representatives,omitempty"`
	Techniques      []string `json:"techniques,omitempty"`
}

// Validate checks the record at load time.
func (s Style) Validate() error {
	if s.Name == "" {
		return errors.New("style name is required")
	}
	if len(s.AllowList) == 0 && len(s.Representatives) == 0 {
		return errors.New("style " + s.Name + " needs an allow-list or representative ingredients")
	}
	return nil
}

// Allows reports whether the ingredient name is on the style's allow-list.
// A style without an allow-list allows everything.
func (s Style) Allows(name string) bool {
	if len(s.AllowList) == 0 {
		return true
	}
	n := Normalize(name)
	for _, a := range s.AllowList {
		if Normalize(a) == n {
			return true
		}
	}
	return false
}
