package gtfs

import (
	"context"
	"fmt"

	"github.com/twpayne/go-polyline"
	"marguerite.stanford.edu/internal/models"
)

// RouteShape returns the route's most used shape as an encoded polyline, or
// nil when the feed has no shape for it.
func (manager *Manager) RouteShape(ctx context.Context, routeID string) (*models.ShapeEntry, error) {
	if _, ok := manager.RouteByID(routeID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, routeID)
	}

	if cached, err := manager.shapeCache.Get(routeID); err == nil {
		shape, _ := cached.(*models.ShapeEntry)
		return shape, nil
	}

	points, err := manager.GtfsDB.Queries.GetShapePointsForRoute(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("querying shape for route %s: %w", routeID, err)
	}

	var shape *models.ShapeEntry
	if len(points) > 0 {
		coords := make([][]float64, 0, len(points))
		for _, p := range points {
			coords = append(coords, []float64{p.Lat, p.Lon})
		}
		shape = &models.ShapeEntry{
			Points: string(polyline.EncodeCoords(coords)),
			Length: len(points),
		}
	}

	_ = manager.shapeCache.Set(routeID, shape)
	return shape, nil
}

// RouteEntry is a route with its display name and shape.
func (manager *Manager) RouteEntry(ctx context.Context, routeID string) (models.RouteEntry, error) {
	route, ok := manager.RouteByID(routeID)
	if !ok {
		return models.RouteEntry{}, fmt.Errorf("%w: %s", ErrRouteNotFound, routeID)
	}

	shape, err := manager.RouteShape(ctx, routeID)
	if err != nil {
		return models.RouteEntry{}, err
	}

	return models.RouteEntry{
		Route:       route,
		DisplayName: route.DisplayName(),
		Shape:       shape,
	}, nil
}
