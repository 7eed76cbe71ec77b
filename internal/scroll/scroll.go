// Package scroll derives the navigation state of the portfolio page from the
// viewport scroll offset and the live layout of its anchor regions.
package scroll

import (
	"errors"
	"fmt"
)

// Section identifies one of the fixed anchor regions of the page.
type Section string

const (
	Home       Section = "home"
	About      Section = "about"
	Skills     Section = "skills"
	Projects   Section = "projects"
	Experience Section = "experience"
	Contact    Section = "contact"
)

// Order is the declared top-to-bottom order of the page regions.
var Order = []Section{Home, About, Skills, Projects, Experience, Contact}

// CompactThreshold is the scroll distance in pixels after which the header
// switches to its condensed style.
const CompactThreshold = 50.0

var ErrUnknownSection = errors.New("unknown section")

// ParseSection returns the Section named by s.
func ParseSection(s string) (Section, error) {
	for _, sec := range Order {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, s)
}

// Layout is one measurement of the page as reported by the browser.
type Layout struct {
	Offset         float64
	ViewportHeight float64
	// Sections holds each mounted region's top offset from the document
	// origin. Regions that are not mounted are simply absent.
	Sections map[Section]float64
}

// State is the scroll-derived part of the page state.
type State struct {
	Compact bool
	Active  Section
}

// Initial is the state of a freshly mounted page.
func Initial() State {
	return State{Active: Home}
}

// Compute derives the State for l. Sections are checked in Order and the last
// one whose midpoint-crossing threshold has been passed wins.
func Compute(l Layout) State {
	st := State{
		Compact: l.Offset > CompactThreshold,
		Active:  Home,
	}
	for _, sec := range Order {
		top, ok := l.Sections[sec]
		if !ok {
			continue
		}
		if l.Offset >= top-l.ViewportHeight/2 {
			st.Active = sec
		}
	}
	return st
}
