package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Behyna/giftledger/internal/logger"
	"github.com/Behyna/giftledger/pkg/mq"
	"github.com/Behyna/giftledger/pkg/mysql"
	"github.com/spf13/viper"
)

type Config struct {
	API            API            `mapstructure:"api"`
	Database       mysql.Config   `mapstructure:"database"`
	RabbitMQ       mq.Config      `mapstructure:"rabbitmq"`
	Log            logger.Config  `mapstructure:"log"`
	Ledger         Ledger         `mapstructure:"ledger"`
	Reconciliation Reconciliation `mapstructure:"reconciliation"`
}

type API struct {
	Port string `mapstructure:"port"`
}

type Ledger struct {
	// AutoProvisionCustomers creates a customer record the first time a phone
	// number debits an instrument instead of rejecting the request.
	AutoProvisionCustomers bool `mapstructure:"auto_provision_customers"`
}

type Reconciliation struct {
	Interval     time.Duration `mapstructure:"interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	CommandQueue string        `mapstructure:"command_queue"`
	ReviewQueue  string        `mapstructure:"review_queue"`
}

func Load() (cfg *Config, err error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return unmarshal(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", ":8080")
	v.SetDefault("rabbitmq.connection_name", "giftledger")
	v.SetDefault("rabbitmq.heartbeat", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("ledger.auto_provision_customers", false)
	v.SetDefault("reconciliation.interval", 5*time.Minute)
	v.SetDefault("reconciliation.batch_size", 200)
	v.SetDefault("reconciliation.command_queue", "ledger.reconcile")
	v.SetDefault("reconciliation.review_queue", "ledger.review")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Reconciliation.BatchSize <= 0 {
		return nil, fmt.Errorf("reconciliation.batch_size must be positive, got %d", cfg.Reconciliation.BatchSize)
	}

	if cfg.Reconciliation.Interval <= 0 {
		return nil, fmt.Errorf("reconciliation.interval must be positive, got %s", cfg.Reconciliation.Interval)
	}

	return &cfg, nil
}
