package parse

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/fernway/transit/model"
)

type routeCSV struct {
	ID        string `csv:"route_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Type      string `csv:"route_type"`
}

func legalRouteType(t model.RouteType) bool {
	return t >= 0 && t <= 7 || t == 11 || t == 12
}

// Routes parses routes.txt. Returns the routes in file order along
// with the set of known route IDs, for use by Trips.
func Routes(data io.Reader) ([]model.Route, map[string]bool, error) {
	rows := []*routeCSV{}
	if err := gocsv.Unmarshal(data, &rows); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling routes csv: %w", err)
	}

	routeIDs := map[string]bool{}
	routes := make([]model.Route, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			return nil, nil, fmt.Errorf("route has no route_id")
		}
		if routeIDs[r.ID] {
			return nil, nil, fmt.Errorf("repeated route_id '%s'", r.ID)
		}
		routeIDs[r.ID] = true

		if r.ShortName == "" && r.LongName == "" {
			return nil, nil, fmt.Errorf("route_id '%s' has no short_name or long_name", r.ID)
		}

		if r.Type == "" {
			return nil, nil, fmt.Errorf("route_id '%s' has no route_type", r.ID)
		}
		routeType, err := strconv.Atoi(r.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("route_id '%s' has invalid route_type: %w", r.ID, err)
		}
		if !legalRouteType(model.RouteType(routeType)) {
			return nil, nil, fmt.Errorf("route_id '%s' has invalid route_type: %d", r.ID, routeType)
		}

		routes = append(routes, model.Route{
			ID:        r.ID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Type:      model.RouteType(routeType),
		})
	}

	return routes, routeIDs, nil
}
