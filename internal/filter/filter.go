// Package filter composes the admin report filters into a refresh query.
//
// Four dimensions are independent single-valued selectors. Selecting the
// value a dimension already holds clears it; selecting any other value
// replaces it.
package filter

import (
	"errors"
	"fmt"
	"slices"
)

// Dimension names one filter selector.
type Dimension string

const (
	Section Dimension = "section"
	Time    Dimension = "time"
	Status  Dimension = "status"
	Type    Dimension = "type"
)

// Dimensions lists every dimension in query order.
var Dimensions = []Dimension{Section, Time, Status, Type}

var (
	ErrUnknownDimension = errors.New("unknown filter dimension")
	ErrInvalidValue     = errors.New("invalid filter value")
)

// domains bounds the values each dimension accepts.
var domains = map[Dimension][]string{
	Section: {"IT-A", "IT-B", "IT-C"},
	Time:    {"today", "this_week", "last_week", "this_month", "last_month", "this_year", "last_year"},
	Status:  {"pending", "match_found", "closed"},
	Type:    {"lost", "found"},
}

// Values returns the accepted values for d in display order.
func Values(d Dimension) []string {
	return slices.Clone(domains[d])
}

// Selection is one active (dimension, value) pair.
type Selection struct {
	Dimension Dimension
	Value     string
}

// Query is the ordered list of active selections.
type Query []Selection

// Get returns the value selected for d, or "".
func (q Query) Get(d Dimension) string {
	for _, s := range q {
		if s.Dimension == d {
			return s.Value
		}
	}
	return ""
}

// Composer holds the active selection per dimension. The zero value is
// not usable; call New.
type Composer struct {
	active  map[Dimension]string
	version uint64
	refresh func(Query)
}

// New creates a Composer with every dimension unset. refresh, if non-nil,
// is called with the new query after every change.
func New(refresh func(Query)) *Composer {
	return &Composer{
		active:  make(map[Dimension]string, len(Dimensions)),
		refresh: refresh,
	}
}

// Apply toggles value on dimension d and triggers a refresh.
func (c *Composer) Apply(d Dimension, value string) error {
	allowed, ok := domains[d]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDimension, d)
	}
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("%w: %q for %s", ErrInvalidValue, value, d)
	}

	if c.active[d] == value {
		delete(c.active, d)
	} else {
		c.active[d] = value
	}
	c.changed()
	return nil
}

// ClearAll unsets every dimension and triggers one refresh.
func (c *Composer) ClearAll() {
	clear(c.active)
	c.changed()
}

// Active returns the value selected for d, or "".
func (c *Composer) Active(d Dimension) string {
	return c.active[d]
}

// Query returns the active selections in section, time, status, type
// order.
func (c *Composer) Query() Query {
	q := make(Query, 0, len(c.active))
	for _, d := range Dimensions {
		if v, ok := c.active[d]; ok {
			q = append(q, Selection{Dimension: d, Value: v})
		}
	}
	return q
}

// Version increases on every change. A refresh response tagged with an
// older version is stale.
func (c *Composer) Version() uint64 {
	return c.version
}

func (c *Composer) changed() {
	c.version++
	if c.refresh != nil {
		c.refresh(c.Query())
	}
}
