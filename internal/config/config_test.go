package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWithEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "6000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("NOTIFIER_MESSAGE_DELAY", "250ms")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Notifier.MessageDelay)
	assert.Equal(t, "2.5", cfg.Commission.SupplierRate.String())
	assert.Equal(t, 24*time.Hour, cfg.Security.TokenTTL)
	assert.Equal(t, "0.0.0.0:6000", cfg.Server.GetServerAddr())
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"database":{"driver":"mysql","host":"db","port":3306,"user":"app","password":"pw","db_name":"trades"},
		"commission":{"supplier_rate":3,"buyer_rate":"1.5"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "app:pw@tcp(db:3306)/trades?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.GetDatabaseURL())
	assert.Equal(t, "3", cfg.Commission.SupplierRate.String())
	assert.Equal(t, "1.5", cfg.Commission.BuyerRate.String())
}

func TestLoadConfigRejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestValidateStorage(t *testing.T) {
	cfg := Default()
	cfg.Security.JWTSecret = "secret"
	cfg.Storage.Driver = "s3"

	assert.Error(t, cfg.Validate())

	cfg.AWS.S3Bucket = "invoices"
	assert.NoError(t, cfg.Validate())
}

func TestPostgresURL(t *testing.T) {
	cfg := Default()
	cfg.Database.User = "u"
	cfg.Database.Password = "p"

	assert.Equal(t, "postgres://u:p@localhost:5432/broker_portal?sslmode=disable", cfg.Database.GetDatabaseURL())
}
