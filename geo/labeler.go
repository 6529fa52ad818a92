package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/citilab/route-survey/schema"
	"github.com/citilab/route-survey/survey"
)

// RouteLabeler names the first and last position of a route with the
// place they fall in
type RouteLabeler struct {
	resolver LocationResolver
}

func NewRouteLabeler(resolver LocationResolver) *RouteLabeler {
	return &RouteLabeler{resolver: resolver}
}

// Label resolves both endpoints. An endpoint that cannot be resolved is
// left empty and its error returned along with the other label.
func (l *RouteLabeler) Label(ctx context.Context, route schema.RouteGeometry) (survey.RouteLabels, error) {
	var labels survey.RouteLabels
	if len(route.Coordinates) == 0 {
		return labels, nil
	}

	origin, originErr := l.resolver.GetPoliticalInfo(ctx, route.Start())
	if originErr == nil {
		labels.Origin = origin.PlaceName()
	} else {
		originErr = fmt.Errorf("origin: %w", originErr)
	}

	destination, destinationErr := l.resolver.GetPoliticalInfo(ctx, route.End())
	if destinationErr == nil {
		labels.Destination = destination.PlaceName()
	} else {
		destinationErr = fmt.Errorf("destination: %w", destinationErr)
	}

	return labels, errors.Join(originErr, destinationErr)
}
