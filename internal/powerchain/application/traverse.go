package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	inventoryapp "power-assets/internal/inventory/application"
	inventory "power-assets/internal/inventory/domain"
	"power-assets/internal/observability/metrics"
	powerchain "power-assets/internal/powerchain/domain"
)

// DeviceReader loads devices by id.
type DeviceReader interface {
	Get(ctx context.Context, id int64) (*inventory.Device, error)
}

// ConnectionReader lists connections by endpoint.
type ConnectionReader interface {
	ListBySource(ctx context.Context, deviceID int64) ([]inventory.Connection, error)
	ListByTarget(ctx context.Context, deviceID int64) ([]inventory.Connection, error)
}

// Cache stores traversal results. A miss returns (nil, nil).
type Cache interface {
	Get(ctx context.Context, start int64) (*powerchain.Graph, error)
	Set(ctx context.Context, start int64, graph *powerchain.Graph) error
	Invalidate(ctx context.Context) error
}

// Service computes power chains.
type Service struct {
	devices     DeviceReader
	connections ConnectionReader
	cache       Cache
	logger      logrus.FieldLogger
}

// Option configures the service.
type Option func(*Service)

// WithCache enables result caching.
func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs the traversal service.
func NewService(devices DeviceReader, connections ConnectionReader, opts ...Option) (*Service, error) {
	if devices == nil || connections == nil {
		return nil, errors.New("powerchain: nil repository")
	}
	s := &Service{devices: devices, connections: connections, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Chain returns the connected component around start, served from the
// cache when possible. Cache failures degrade to a direct traversal.
func (s *Service) Chain(ctx context.Context, start int64) (*powerchain.Graph, error) {
	if s.cache != nil {
		graph, err := s.cache.Get(ctx, start)
		switch {
		case err != nil:
			metrics.IncChainCache(metrics.CacheError)
			s.logger.WithError(err).WithField("device_id", start).Warn("chain cache read failed")
		case graph != nil:
			metrics.IncChainCache(metrics.CacheHit)
			return graph, nil
		default:
			metrics.IncChainCache(metrics.CacheMiss)
		}
	}

	graph, err := s.Traverse(ctx, start)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, start, graph); err != nil {
			metrics.IncChainCache(metrics.CacheError)
			s.logger.WithError(err).WithField("device_id", start).Warn("chain cache write failed")
		}
	}
	return graph, nil
}

// InvalidationHook drops cached chains after the graph changes.
func (s *Service) InvalidationHook() inventoryapp.ChangeHook {
	return func(ctx context.Context) {
		if s.cache == nil {
			return
		}
		if err := s.cache.Invalidate(ctx); err != nil {
			metrics.IncChainCache(metrics.CacheError)
			s.logger.WithError(err).Warn("chain cache invalidation failed")
		}
	}
}

type queued struct {
	id    int64
	level int
}

// Traverse walks breadth-first from start across upstream and downstream
// connections. Each device is visited once; an edge is recorded when it
// discovers a new device and keeps its stored orientation.
func (s *Service) Traverse(ctx context.Context, start int64) (*powerchain.Graph, error) {
	root, err := s.devices.Get(ctx, start)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("%w: %d", inventory.ErrDeviceNotFound, start)
	}

	graph := &powerchain.Graph{Start: start, Nodes: []powerchain.Node{node(root, 0)}, Edges: []powerchain.Edge{}}
	visited := map[int64]bool{start: true}
	queue := []queued{{id: start}}

	visit := func(conn inventory.Connection, neighbor int64, level int) error {
		if visited[neighbor] {
			return nil
		}
		device, err := s.devices.Get(ctx, neighbor)
		if err != nil {
			return err
		}
		if device == nil {
			return nil
		}
		visited[neighbor] = true
		graph.Nodes = append(graph.Nodes, node(device, level))
		graph.Edges = append(graph.Edges, edge(conn))
		queue = append(queue, queued{id: neighbor, level: level})
		return nil
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		upstream, err := s.connections.ListByTarget(ctx, current.id)
		if err != nil {
			return nil, err
		}
		for _, conn := range upstream {
			if err := visit(conn, conn.SourceDeviceID, current.level-1); err != nil {
				return nil, err
			}
		}
		downstream, err := s.connections.ListBySource(ctx, current.id)
		if err != nil {
			return nil, err
		}
		for _, conn := range downstream {
			if err := visit(conn, conn.TargetDeviceID, current.level+1); err != nil {
				return nil, err
			}
		}
	}

	metrics.ObserveChainTraversal(len(graph.Nodes))
	return graph, nil
}

func node(d *inventory.Device, level int) powerchain.Node {
	title := []string{"资产编号: " + d.AssetID, "局站: " + d.Station}
	if d.DeviceType != "" {
		title = append(title, "设备类型: "+d.DeviceType)
	}
	if d.Location != "" {
		title = append(title, "位置: "+d.Location)
	}
	return powerchain.Node{
		ID:    d.ID,
		Label: d.Name,
		Title: strings.Join(title, "\n"),
		Level: level,
		Group: inventoryapp.DeviceTypeCategory(d.DeviceType),
	}
}

func edge(c inventory.Connection) powerchain.Edge {
	e := powerchain.Edge{
		ID:     c.ID,
		From:   c.SourceDeviceID,
		To:     c.TargetDeviceID,
		Arrows: "to",
		Label:  c.Label(),
	}
	if c.SourcePort != "" || c.TargetPort != "" {
		e.Title = c.SourcePort + " → " + c.TargetPort
	}
	return e
}
