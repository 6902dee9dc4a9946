// Package ingredients holds the protein ingredient table: the physicochemical
// properties every synthetic training example and every formulation record is
// derived from.
package ingredients

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Property describes one protein source. The JSON keys match the stored
// document ("desc", not "description").
type Property struct {
	WHC         float64 `json:"whc"`
	Solubility  float64 `json:"solubility"`
	Description string  `json:"desc"`
}

// Validate checks the ranges the generator is calibrated for.
func (p Property) Validate() error {
	if p.WHC < 0 {
		return fmt.Errorf("water holding capacity must be >= 0, got %g", p.WHC)
	}
	if p.Solubility < 0 || p.Solubility > 100 {
		return fmt.Errorf("solubility must be within [0, 100], got %g", p.Solubility)
	}
	return nil
}

// Table maps a normalized ingredient name to its properties.
type Table map[string]Property

// Names returns the ingredient names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup matches user input against the table after normalization.
func (t Table) Lookup(input string) (string, Property, bool) {
	name := Normalize(input)
	p, ok := t[name]
	return name, p, ok
}

// Clone returns an independent copy.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Normalize trims the input and capitalizes it: first letter upper case,
// the rest lower case ("sOY " -> "Soy", "rice protein" -> "Rice protein").
func Normalize(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// CustomDescription is attached to ingredients authored through the dialogue.
const CustomDescription = "User customized."

// Defaults returns the seed table written on first use.
func Defaults() Table {
	return Table{
		"Pea":    {WHC: 3.0, Solubility: 60, Description: "Globulin-heavy. Earthy notes. Good gelling."},
		"Soy":    {WHC: 4.5, Solubility: 85, Description: "The gold standard. High solubility, neutral taste."},
		"Oat":    {WHC: 2.5, Solubility: 40, Description: "High starch/beta-glucan. Viscous but weak gel."},
		"Fava":   {WHC: 3.5, Solubility: 55, Description: "High foaming capacity. Can be beany."},
		"Almond": {WHC: 1.5, Solubility: 20, Description: "Insoluble particles. Gritty if not refined."},
	}
}
