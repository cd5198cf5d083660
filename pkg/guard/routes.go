package guard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ParamPrefix marks a segment that matches any single path segment.
	ParamPrefix = ":"
	// Wildcard as the last segment matches the rest of the path.
	Wildcard = "*"
)

// Route is the protection metadata of one navigable destination.
type Route struct {
	Path         string `yaml:"path"`
	Name         string `yaml:"name"`
	RequiresAuth bool   `yaml:"requiresAuth"`
	GuestOnly    bool   `yaml:"guestOnly"`
	// NotFound is set on the route returned for unmatched paths.
	NotFound bool `yaml:"-"`

	segments []string
}

// Routes is an ordered route table. The first matching route wins.
type Routes struct {
	routes   []Route
	notFound Route
}

// NewRoutes validates routes and builds the table. Unmatched paths resolve
// to notFoundPath, which carries no protection flags.
func NewRoutes(notFoundPath string, routes ...Route) (*Routes, error) {
	if notFoundPath == "" {
		notFoundPath = "/404"
	}
	t := &Routes{
		routes:   make([]Route, 0, len(routes)),
		notFound: Route{Path: notFoundPath, Name: "not-found", NotFound: true},
	}

	seen := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		if r.RequiresAuth && r.GuestOnly {
			return nil, fmt.Errorf("%w: %s", ErrConflictingFlags, r.Path)
		}
		segs, err := compile(r.Path)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[r.Path]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRoute, r.Path)
		}
		seen[r.Path] = struct{}{}
		r.segments = segs
		r.NotFound = false
		t.routes = append(t.routes, r)
	}
	return t, nil
}

// MustRoutes is like NewRoutes but panics on an invalid table.
func MustRoutes(notFoundPath string, routes ...Route) *Routes {
	t, err := NewRoutes(notFoundPath, routes...)
	if err != nil {
		panic(err)
	}
	return t
}

type routeFile struct {
	NotFound string  `yaml:"notFound"`
	Routes   []Route `yaml:"routes"`
}

// LoadRoutes reads a YAML route table:
//
//	notFound: /404
//	routes:
//	  - path: /profile
//	    name: profile
//	    requiresAuth: true
//	  - path: /login
//	    guestOnly: true
func LoadRoutes(r io.Reader) (*Routes, error) {
	var f routeFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrParseRoutes, err)
	}
	return NewRoutes(f.NotFound, f.Routes...)
}

// LoadRoutesFile reads a YAML route table from path.
func LoadRoutesFile(path string) (*Routes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrParseRoutes, err)
	}
	defer f.Close()
	return LoadRoutes(f)
}

// All returns a copy of the table in match order.
func (t *Routes) All() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// NotFound returns the route unmatched paths resolve to.
func (t *Routes) NotFound() Route {
	return t.notFound
}

// Match resolves path to its route and captured parameters. The query and
// fragment are ignored. Unmatched paths return the not-found route and
// ok=false.
func (t *Routes) Match(path string) (route Route, params map[string]string, ok bool) {
	segs := split(stripQuery(path))
	for _, r := range t.routes {
		if p, hit := matchSegments(r.segments, segs); hit {
			return r, p, true
		}
	}
	return t.notFound, nil, false
}

func compile(pattern string) ([]string, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, pattern)
	}
	segs := split(pattern)
	for i, s := range segs {
		switch {
		case s == Wildcard && i != len(segs)-1:
			return nil, fmt.Errorf("%w: %q has %s before the last segment", ErrInvalidPattern, pattern, Wildcard)
		case s == ParamPrefix:
			return nil, fmt.Errorf("%w: %q has an unnamed parameter", ErrInvalidPattern, pattern)
		}
	}
	return segs, nil
}

func matchSegments(pattern, path []string) (map[string]string, bool) {
	var params map[string]string
	for i, p := range pattern {
		if p == Wildcard {
			if params == nil {
				params = make(map[string]string)
			}
			params[Wildcard] = strings.Join(path[i:], "/")
			return params, true
		}
		if i >= len(path) {
			return nil, false
		}
		if name, isParam := strings.CutPrefix(p, ParamPrefix); isParam {
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = path[i]
			continue
		}
		if p != path[i] {
			return nil, false
		}
	}
	if len(pattern) != len(path) {
		return nil, false
	}
	return params, true
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func stripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}
