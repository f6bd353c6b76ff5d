package treecache

import (
	"strings"
	"time"

	"github.com/unkn0wn-root/l2cache"
	"github.com/unkn0wn-root/l2cache/config"
)

const (
	defaultLockAcquisitionTimeout = 10 * time.Second
	defaultGhostRetention         = 20 * time.Second
)

// Property keys read by ConfigFromProperties.
const (
	PropNodeLockingScheme      = "treecache.node_locking_scheme"
	PropSynchronous            = "treecache.synchronous"
	PropLockAcquisitionTimeout = "treecache.lock_acquisition_timeout"
	PropGhostRetention         = "treecache.ghost_retention"
)

type Config struct {
	// NodeLockingScheme is LockingPessimistic or LockingOptimistic. It is
	// fixed for the lifetime of the cache.
	NodeLockingScheme l2cache.LockingScheme
	// Synchronous caches apply writes in step with the transaction; regions
	// on them report themselves transaction aware.
	Synchronous bool
	// LockAcquisitionTimeout bounds waiting for a pessimistic node lock.
	// Default 10s.
	LockAcquisitionTimeout time.Duration
	// GhostRetention is how long an optimistic removal keeps blocking older
	// versions. Default 20s, the naked-put invalidation period.
	GhostRetention time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "treecache: config error in field " + e.Field + ": " + e.Message
}

func (c Config) Validate() error {
	switch c.NodeLockingScheme {
	case l2cache.LockingPessimistic, l2cache.LockingOptimistic:
	default:
		return &ConfigError{Field: "NodeLockingScheme", Message: "must be pessimistic or optimistic"}
	}
	if c.LockAcquisitionTimeout < 0 {
		return &ConfigError{Field: "LockAcquisitionTimeout", Message: "must not be negative"}
	}
	if c.GhostRetention < 0 {
		return &ConfigError{Field: "GhostRetention", Message: "must not be negative"}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.LockAcquisitionTimeout == 0 {
		c.LockAcquisitionTimeout = defaultLockAcquisitionTimeout
	}
	if c.GhostRetention == 0 {
		c.GhostRetention = defaultGhostRetention
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// ConfigFromProperties reads a Config. The locking scheme accepts
// "OPTIMISTIC" or "PESSIMISTIC" in any case.
func ConfigFromProperties(p config.Properties) (Config, error) {
	var c Config
	switch v := p.String(PropNodeLockingScheme, "PESSIMISTIC"); {
	case strings.EqualFold(v, "OPTIMISTIC"):
		c.NodeLockingScheme = l2cache.LockingOptimistic
	case strings.EqualFold(v, "PESSIMISTIC"):
		c.NodeLockingScheme = l2cache.LockingPessimistic
	default:
		return c, &config.PropertyError{Key: PropNodeLockingScheme, Value: v, Err: &ConfigError{Field: "NodeLockingScheme", Message: "unknown scheme"}}
	}
	var err error
	if c.Synchronous, err = p.Bool(PropSynchronous, false); err != nil {
		return c, err
	}
	if c.LockAcquisitionTimeout, err = p.Duration(PropLockAcquisitionTimeout, 0); err != nil {
		return c, err
	}
	if c.GhostRetention, err = p.Duration(PropGhostRetention, 0); err != nil {
		return c, err
	}
	return c, c.Validate()
}
