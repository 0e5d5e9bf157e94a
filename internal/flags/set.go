// Package flags turns a keyboard and driver descriptor pair into the build
// flags and source filter of one firmware build.
package flags

import "fmt"

// Set is an ordered collection of compiler flags and source-filter rules.
// Order is insertion order.
type Set struct {
	flags     []string
	srcFilter []string
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{flags: []string{}, srcFilter: []string{}}
}

// Define adds a value-less preprocessor definition, -DNAME.
func (s *Set) Define(name string) {
	s.flags = append(s.flags, "-D"+name)
}

// DefineValue adds a valued preprocessor definition, -DNAME='value'.
func (s *Set) DefineValue(name, value string) {
	s.flags = append(s.flags, fmt.Sprintf("-D%s='%s'", name, value))
}

// Include adds an include path, -Ipath.
func (s *Set) Include(path string) {
	s.flags = append(s.flags, "-I"+path)
}

// Exclude adds a -<pattern> source-filter rule.
func (s *Set) Exclude(pattern string) {
	s.srcFilter = append(s.srcFilter, "-<"+pattern+">")
}

// Add adds a +<pattern> source-filter rule.
func (s *Set) Add(pattern string) {
	s.srcFilter = append(s.srcFilter, "+<"+pattern+">")
}

// Flags returns the build flags in insertion order.
func (s *Set) Flags() []string {
	return append([]string(nil), s.flags...)
}

// SrcFilter returns the source-filter rules in insertion order.
func (s *Set) SrcFilter() []string {
	return append([]string(nil), s.srcFilter...)
}

// Len returns the number of build flags.
func (s *Set) Len() int { return len(s.flags) }
