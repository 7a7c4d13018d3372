package config

import (
	"testing"
)

func TestMustNewConfigDefaults(t *testing.T) {
	c := MustNewConfig()

	if c.LedgerServerAddress != "127.0.0.1:8050" || c.TransfersPageSize != 100 || c.TxTimeout != 10000 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if len(c.KafkaBrokers) != 1 || c.KafkaBrokers[0] != "127.0.0.1:9092" {
		t.Fatalf("brokers=%v", c.KafkaBrokers)
	}
}

func TestMustNewConfigFromEnv(t *testing.T) {
	t.Setenv("LEDGER_SERVER_ADDRESS", "0.0.0.0:9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "250")

	c := MustNewConfig()

	if c.LedgerServerAddress != "0.0.0.0:9000" || c.LockTimeout != 250 {
		t.Fatalf("env not applied %+v", c)
	}
	if len(c.KafkaBrokers) != 2 || c.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers=%v", c.KafkaBrokers)
	}
}
