package metrics

import (
	"database/sql"
	"runtime"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Collector samples process and connection-pool stats on a ticker.
type Collector struct {
	metrics   *Metrics
	logger    *zap.Logger
	sqlDB     *sql.DB
	startTime time.Time
	ticker    *time.Ticker
	stopCh    chan struct{}
}

func NewCollector(metrics *Metrics, logger *zap.Logger, db *gorm.DB) *Collector {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get sql.DB from gorm.DB", zap.Error(err))
	}

	return &Collector{
		metrics:   metrics,
		logger:    logger,
		sqlDB:     sqlDB,
		startTime: time.Now(),
		stopCh:    make(chan struct{}),
	}
}

func (c *Collector) Start(interval time.Duration) {
	c.ticker = time.NewTicker(interval)
	go c.collectLoop()
	c.logger.Info("Metrics collector started", zap.Duration("interval", interval))
}

func (c *Collector) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	close(c.stopCh)
	c.logger.Info("Metrics collector stopped")
}

func (c *Collector) collectLoop() {
	c.Collect()

	for {
		select {
		case <-c.ticker.C:
			c.Collect()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Collector) Collect() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	c.metrics.UpdateSystemMetrics(time.Since(c.startTime), &memStats)

	if c.sqlDB == nil {
		return
	}

	stats := c.sqlDB.Stats()
	c.metrics.DBConnectionsInUse.Set(float64(stats.InUse))
	c.metrics.DBConnectionsIdle.Set(float64(stats.Idle))
	c.metrics.DBWaitCount.Set(float64(stats.WaitCount))

	c.logger.Debug("Database connection stats",
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int64("wait_count", stats.WaitCount),
		zap.Duration("wait_duration", stats.WaitDuration),
	)
}
