package transit

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Registry is a read-only lookup from bus identifier to route.
type Registry struct {
	routes []BusRoute
	byID   map[string]int
}

// NewRegistry validates every record and indexes it by ID.
func NewRegistry(routes []BusRoute) (*Registry, error) {
	r := &Registry{
		routes: make([]BusRoute, 0, len(routes)),
		byID:   make(map[string]int, len(routes)),
	}
	for i, route := range routes {
		if err := validate.Struct(route); err != nil {
			return nil, fmt.Errorf("route %d (%q): %w", i, route.ID, err)
		}
		if _, dup := r.byID[route.ID]; dup {
			return nil, fmt.Errorf("duplicate route id %q", route.ID)
		}
		route.Waypoints = append([]Waypoint(nil), route.Waypoints...)
		r.byID[route.ID] = len(r.routes)
		r.routes = append(r.routes, route)
	}
	return r, nil
}

func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultRoutes())
	if err != nil {
		panic(err)
	}
	return r
}

type routesFile struct {
	Routes []BusRoute `yaml:"routes"`
}

// LoadRoutesYAML reads a route table of the form `routes: [...]`.
func LoadRoutesYAML(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Routes) == 0 {
		return nil, fmt.Errorf("%s: no routes defined", path)
	}
	return NewRegistry(f.Routes)
}

// Lookup returns the route for busID. A miss is a normal outcome.
func (r *Registry) Lookup(busID string) (BusRoute, bool) {
	i, ok := r.byID[busID]
	if !ok {
		return BusRoute{}, false
	}
	return r.routes[i], true
}

// All returns the routes in declaration order.
func (r *Registry) All() []BusRoute {
	out := make([]BusRoute, len(r.routes))
	copy(out, r.routes)
	return out
}

func (r *Registry) Len() int { return len(r.routes) }
