package lambda

import (
	"context"
	"sync"
	"time"

	"retail-cockpit-api/internal/config"
	"retail-cockpit-api/pkg/server"
)

// defaultStaleAfter is how old the published dataset may get before a warm
// invocation reloads it
const defaultStaleAfter = time.Minute

// ConnectionManager keeps one container alive across warm invocations
type ConnectionManager struct {
	container   *server.Container
	config      *config.Config
	lastUsed    time.Time
	lastRefresh time.Time
	staleAfter  time.Duration
	mu          sync.Mutex
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = NewConnectionManager(nil, defaultStaleAfter)
	})
	return globalConnectionManager
}

// NewConnectionManager creates a manager for cfg. A nil cfg is loaded from
// the environment on first use.
func NewConnectionManager(cfg *config.Config, staleAfter time.Duration) *ConnectionManager {
	return &ConnectionManager{config: cfg, staleAfter: staleAfter}
}

// GetContainer returns the cached container, building it on a cold start and
// reloading the dataset when it has gone stale
func (cm *ConnectionManager) GetContainer(ctx context.Context) (*server.Container, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	now := time.Now()
	if cm.container == nil {
		if cm.config == nil {
			cfg, err := config.GetOptimizedConfig()
			if err != nil {
				return nil, err
			}
			cm.config = cfg
		}

		container, err := server.NewContainer(ctx, cm.config, nil)
		if err != nil {
			return nil, err
		}
		cm.container = container
		cm.lastRefresh = now
	} else if cm.staleAfter > 0 && now.Sub(cm.lastRefresh) > cm.staleAfter {
		if err := cm.container.Hub.Refresh(ctx); err != nil {
			cm.container.Logger.WithError(err).Warn("Dataset reload failed")
		}
		cm.lastRefresh = now
	}

	cm.lastUsed = now
	return cm.container, nil
}

// IsHealthy reports whether a container is cached and was used recently
func (cm *ConnectionManager) IsHealthy() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		return false
	}
	return time.Since(cm.lastUsed) < 5*time.Minute
}

// Cleanup closes the cached container
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		return nil
	}
	err := cm.container.Close()
	cm.container = nil
	return err
}
