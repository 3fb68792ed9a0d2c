package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServiceEnvironment           string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
	ClickHouseHost               string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	ClickHousePort               string `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	ClickHouseDB                 string `envconfig:"CLICKHOUSE_DB" required:"true"`
	ClickHouseUser               string `envconfig:"CLICKHOUSE_USER" default:""`
	ClickHousePassword           string `envconfig:"CLICKHOUSE_PASSWORD" default:""`
	ClickHouseUseTLS             bool   `envconfig:"CLICKHOUSE_USE_TLS" default:"false"`
	ClickHouseMaxOpenConns       int    `envconfig:"CLICKHOUSE_MAX_OPEN_CONNS" default:"5"`
	ClickHouseMaxIdleConns       int    `envconfig:"CLICKHOUSE_MAX_IDLE_CONNS" default:"2"`
	ClickHouseConnMaxLifetimeSec int    `envconfig:"CLICKHOUSE_CONN_MAX_LIFETIME_SEC" default:"3600"`
	StageDir                     string `envconfig:"STAGE_DIR" default:"./stage"`
	DataDir                      string `envconfig:"DATA_DIR" default:"./amazon-sales-data"`
	SourceCatalogPath            string `envconfig:"SOURCE_CATALOG" default:""`
	CurateDedupKey               string `envconfig:"CURATE_DEDUP_KEY" default:"order_id"`
	UploadParallelism            int    `envconfig:"UPLOAD_PARALLELISM" default:"10"`
	MetricsAddr                  string `envconfig:"METRICS_ADDR" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
