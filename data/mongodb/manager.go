// Package mongodb connects to the scouting database. Writes go to the
// primary; reads may be spread over read replicas with a round-robin,
// random or weighted strategy.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ncobase/scoutcore/config"
	"github.com/ncobase/scoutcore/log"

	"github.com/hashicorp/go-multierror"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	ErrInvalidStrategy   = errors.New("invalid load balancing strategy")
	ErrNoAvailableSlaves = errors.New("no available read replicas")
)

// Manager holds the primary client and the read replica clients
type Manager struct {
	master   *mongo.Client
	slaves   []*mongo.Client
	strategy LoadBalancer
	database string
	mutex    sync.RWMutex
}

// NewManager connects to the primary and every reachable replica. A
// replica that cannot be reached is logged and skipped.
func NewManager(ctx context.Context, conf *config.MongoDB) (*Manager, error) {
	if conf == nil || conf.Master == nil {
		return nil, errors.New("master mongodb configuration is required")
	}

	strategy, err := newBalancer(conf)
	if err != nil {
		return nil, err
	}

	master, err := newMongoClient(ctx, conf.Master, conf.MaxRetry)
	if err != nil {
		return nil, err
	}

	var slaves []*mongo.Client
	for i, slaveCfg := range conf.Slaves {
		slave, err := newMongoClient(ctx, slaveCfg, conf.MaxRetry)
		if err != nil {
			log.Warnf(ctx, "failed to connect to mongodb replica %d: %v", i, err)
			continue
		}
		slaves = append(slaves, slave)
	}

	return &Manager{
		master:   master,
		slaves:   slaves,
		strategy: strategy,
		database: conf.Database,
	}, nil
}

func newBalancer(conf *config.MongoDB) (LoadBalancer, error) {
	switch conf.Strategy {
	case "round_robin", "":
		return NewRoundRobinBalancer(), nil
	case "random":
		return &RandomBalancer{}, nil
	case "weight":
		return NewWeightBalancer(conf.Slaves), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, conf.Strategy)
	}
}

// LoadBalancer picks the replica serving the next read
type LoadBalancer interface {
	Next([]*mongo.Client) (*mongo.Client, error)
}

type RoundRobinBalancer struct {
	current atomic.Uint64
}

func NewRoundRobinBalancer() *RoundRobinBalancer {
	return &RoundRobinBalancer{}
}

func (rb *RoundRobinBalancer) Next(slaves []*mongo.Client) (*mongo.Client, error) {
	if len(slaves) == 0 {
		return nil, ErrNoAvailableSlaves
	}

	next := rb.current.Add(1) % uint64(len(slaves))
	return slaves[next], nil
}

type RandomBalancer struct{}

func (rb *RandomBalancer) Next(slaves []*mongo.Client) (*mongo.Client, error) {
	if len(slaves) == 0 {
		return nil, ErrNoAvailableSlaves
	}

	return slaves[rand.Intn(len(slaves))], nil
}

type WeightBalancer struct {
	weights []int
	current atomic.Uint64
}

func NewWeightBalancer(nodes []*config.MongoNode) *WeightBalancer {
	weights := make([]int, len(nodes))
	for i, node := range nodes {
		weights[i] = node.Weight
		if weights[i] <= 0 {
			weights[i] = 1
		}
	}
	return &WeightBalancer{weights: weights}
}

func (wb *WeightBalancer) Next(slaves []*mongo.Client) (*mongo.Client, error) {
	if len(slaves) == 0 {
		return nil, ErrNoAvailableSlaves
	}

	// Replicas dropped at connect time shift positions; weigh the survivors only
	weights := wb.weights
	if len(weights) > len(slaves) {
		weights = weights[:len(slaves)]
	}
	totalWeight := 0
	for _, w := range weights {
		totalWeight += w
	}
	if totalWeight == 0 {
		return slaves[0], nil
	}

	next := wb.current.Add(1) % uint64(totalWeight)

	var accumulator int
	for i, w := range weights {
		accumulator += w
		if uint64(accumulator) > next {
			return slaves[i], nil
		}
	}

	return slaves[0], nil
}

// Master returns the primary client
func (m *Manager) Master() *mongo.Client {
	if m == nil {
		return nil
	}
	return m.master
}

// Slave returns a read replica, or the primary when none is available
func (m *Manager) Slave() *mongo.Client {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if len(m.slaves) == 0 {
		return m.master
	}

	slave, err := m.strategy.Next(m.slaves)
	if err != nil {
		return m.master
	}
	return slave
}

// Collection returns a collection of the configured database. Read-only
// callers are served by a replica.
func (m *Manager) Collection(name string, readOnly bool) *mongo.Collection {
	client := m.master
	if readOnly {
		client = m.Slave()
	}
	return client.Database(m.database).Collection(name)
}

// Health pings the primary and drops replicas that do not answer
func (m *Manager) Health(ctx context.Context) error {
	if err := m.master.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("master mongodb health check failed: %w", err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	var healthySlaves []*mongo.Client
	for i, slave := range m.slaves {
		if err := slave.Ping(ctx, nil); err != nil {
			log.Warnf(ctx, "mongodb replica %d health check failed: %v", i, err)
			continue
		}
		healthySlaves = append(healthySlaves, slave)
	}
	m.slaves = healthySlaves

	return nil
}

// Close disconnects every client
func (m *Manager) Close(ctx context.Context) error {
	var result *multierror.Error

	if err := m.master.Disconnect(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("error closing master connection: %w", err))
	}

	for i, slave := range m.slaves {
		if err := slave.Disconnect(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("error closing replica %d connection: %w", i, err))
		}
	}

	return result.ErrorOrNil()
}

// newMongoClient connects and pings, retrying up to maxRetry more times
func newMongoClient(ctx context.Context, conf *config.MongoNode, maxRetry int) (*mongo.Client, error) {
	if conf == nil || conf.URI == "" {
		return nil, errors.New("mongodb configuration is nil or empty")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err = client.Ping(ctx, nil)
		if err == nil {
			return client, nil
		}
		if attempt >= maxRetry || ctx.Err() != nil {
			break
		}
		time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
	}

	_ = client.Disconnect(context.Background())
	return nil, fmt.Errorf("mongodb ping error: %w", err)
}
