// Package routedraft assembles a route creation payload from named
// stops, each resolved to a geocoded place before submission.
package routedraft

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"rotalize/client/internal/api"
	"rotalize/client/internal/geocode"
)

const (
	// minStops is the floor for a usable route; drafts never shrink
	// below it.
	minStops = 2

	// minNameLen is the fewest characters a route name may have after
	// trimming.
	minNameLen = 3

	// maxAddressLen caps a stop address carried in the payload.
	maxAddressLen = 500
)

// Place is the geocoded resolution a stop was pinned to.
type Place struct {
	Address string
	Lat     float64
	Lon     float64
}

// Stop is one editable entry of a draft. A stop with a nil Place is
// unresolved: the user typed a query but has not picked a candidate.
type Stop struct {
	ID    string
	Query string
	Place *Place
}

// Resolved reports whether the stop has a pinned place.
func (s Stop) Resolved() bool { return s.Place != nil }

// Draft is an in-progress route. Stops keep their visual order;
// InitialIndex marks which stop the route departs from.
type Draft struct {
	Name         string
	Stops        []Stop
	InitialIndex int
}

// New starts a draft with two blank stops, the first marked initial.
func New() *Draft {
	return &Draft{
		Stops: []Stop{
			{ID: uuid.NewString()},
			{ID: uuid.NewString()},
		},
	}
}

// SetName updates the draft's route name.
func (d *Draft) SetName(name string) { d.Name = name }

// AddStop appends a blank stop and returns its id.
func (d *Draft) AddStop() string {
	id := uuid.NewString()
	d.Stops = append(d.Stops, Stop{ID: id})
	return id
}

// AddStopAfter inserts a blank stop right after the given one and
// returns the new id. An unknown id appends at the end.
func (d *Draft) AddStopAfter(afterID string) string {
	id := uuid.NewString()
	at := d.indexOf(afterID)
	if at < 0 {
		d.Stops = append(d.Stops, Stop{ID: id})
		return id
	}
	d.Stops = append(d.Stops, Stop{})
	copy(d.Stops[at+2:], d.Stops[at+1:])
	d.Stops[at+1] = Stop{ID: id}
	if at+1 <= d.InitialIndex {
		d.InitialIndex++
	}
	return id
}

// RemoveStop deletes a stop. Drafts never drop below two stops, so
// removal at the floor is a no-op. The initial marker follows its stop;
// removing the initial stop moves the marker to the first stop.
func (d *Draft) RemoveStop(id string) {
	if len(d.Stops) <= minStops {
		return
	}
	at := d.indexOf(id)
	if at < 0 {
		return
	}
	d.Stops = append(d.Stops[:at], d.Stops[at+1:]...)
	switch {
	case at == d.InitialIndex:
		d.InitialIndex = 0
	case at < d.InitialIndex:
		d.InitialIndex--
	}
}

// UpdateQuery records new search text for a stop and drops its pinned
// place, since the text no longer describes it.
func (d *Draft) UpdateQuery(id, text string) {
	if at := d.indexOf(id); at >= 0 {
		d.Stops[at].Query = text
		d.Stops[at].Place = nil
	}
}

// SelectPlace pins a stop to one of its geocode candidates.
func (d *Draft) SelectPlace(id string, c geocode.Candidate) error {
	at := d.indexOf(id)
	if at < 0 {
		return fmt.Errorf("select place: unknown stop %s", id)
	}
	d.Stops[at].Query = c.Label
	d.Stops[at].Place = &Place{Address: c.Label, Lat: c.Lat, Lon: c.Lon}
	return nil
}

// SetInitial marks a stop as the route's departure point. Only
// resolved stops qualify.
func (d *Draft) SetInitial(id string) error {
	at := d.indexOf(id)
	if at < 0 {
		return fmt.Errorf("set initial: unknown stop %s", id)
	}
	if !d.Stops[at].Resolved() {
		return fmt.Errorf("set initial: stop %s has no pinned place", id)
	}
	d.InitialIndex = at
	return nil
}

// CanSubmit reports whether the draft is complete: a trimmed name of at
// least three characters, two or more resolved stops, and a resolved
// initial stop.
func (d *Draft) CanSubmit() bool {
	if len([]rune(strings.TrimSpace(d.Name))) < minNameLen {
		return false
	}
	resolved := 0
	for _, s := range d.Stops {
		if s.Resolved() {
			resolved++
		}
	}
	if resolved < minStops {
		return false
	}
	return d.InitialIndex < len(d.Stops) && d.Stops[d.InitialIndex].Resolved()
}

// BuildPayload converts the draft into the creation payload. Unresolved
// stops are left out; the initial marker lands on the point built from
// the initial stop.
func (d *Draft) BuildPayload() (api.CreateRoutePayload, error) {
	if !d.CanSubmit() {
		return api.CreateRoutePayload{}, fmt.Errorf("build payload: draft is incomplete")
	}
	payload := api.CreateRoutePayload{RouteName: strings.TrimSpace(d.Name)}
	for i, s := range d.Stops {
		if !s.Resolved() {
			continue
		}
		payload.RoutePoints = append(payload.RoutePoints, api.RoutePoint{
			Latitude:       s.Place.Lat,
			Longitude:      s.Place.Lon,
			Address:        SanitizeAddress(s.Place.Address),
			IsInitialPoint: i == d.InitialIndex,
		})
	}
	return payload, nil
}

// Reset returns the draft to its blank two-stop shape.
func (d *Draft) Reset() {
	*d = *New()
}

func (d *Draft) indexOf(id string) int {
	for i, s := range d.Stops {
		if s.ID == id {
			return i
		}
	}
	return -1
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	commaRun      = regexp.MustCompile(`,(\s*,)+`)
)

// SanitizeAddress normalizes a free-form address for the payload:
// newlines become spaces, whitespace runs collapse to one space,
// duplicated commas collapse to one, and the result is trimmed and
// capped at 500 characters. Applying it twice changes nothing.
func SanitizeAddress(addr string) string {
	s := whitespaceRun.ReplaceAllString(addr, " ")
	for {
		next := commaRun.ReplaceAllString(s, ",")
		next = whitespaceRun.ReplaceAllString(next, " ")
		if next == s {
			break
		}
		s = next
	}
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxAddressLen {
		s = strings.TrimSpace(string(r[:maxAddressLen]))
	}
	return s
}
