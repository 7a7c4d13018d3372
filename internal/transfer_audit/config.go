package transfer_audit

import (
	"github.com/caarlos0/env"
)

type Config struct {
	KafkaGroupID                string `json:"kafka_group_id" env:"KAFKA_TRANSFER_AUDIT_GROUP_ID" envDefault:"transfer_audit_consumer_group"`
	KafkaPartitionWatchInterval int    `json:"kafka_partition_watch_interval" env:"KAFKA_TRANSFER_AUDIT_PARTITION_WATCH_INTERWAL" envDefault:"50000"`
	KafkaMaxWaitInterval        int    `json:"kafka_max_wait_interval" env:"KAFKA_TRANSFER_AUDIT_MAX_WAIT_INTERWAL" envDefault:"250"`
	// Milliseconds between attempts to store a message while Mongo is failing.
	SaveRetryInterval int `json:"save_retry_interval" env:"TRANSFER_AUDIT_SAVE_RETRY_INTERVAL" envDefault:"1000"`
}

func MustNewConfig() *Config {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		panic(err)
	}

	return c
}
