// Package bootstrap turns configuration into the infrastructure clients the
// API and the workers run on.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"agri-broker/broker-portal/broker-portal-backend/internal/activity"
	"agri-broker/broker-portal/broker-portal-backend/internal/config"
	"agri-broker/broker-portal/broker-portal-backend/internal/server"
	"agri-broker/broker-portal/broker-portal-backend/pkg/database"
	"agri-broker/broker-portal/broker-portal-backend/pkg/dedupe"
	"agri-broker/broker-portal/broker-portal-backend/pkg/logging"
	"agri-broker/broker-portal/broker-portal-backend/pkg/notify"
	"agri-broker/broker-portal/broker-portal-backend/pkg/storage"
)

// Logger builds the process logger from the logging section
func Logger(cfg config.LoggingConfig) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:       cfg.Level,
		Development: cfg.Development,
		File:        cfg.File,
		MaxSizeMB:   cfg.MaxSizeMB,
		MaxBackups:  cfg.MaxBackups,
		MaxAgeDays:  cfg.MaxAgeDays,
	})
}

// Database opens the configured database and migrates the schema
func Database(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	db, err := database.Open(database.Options{
		Driver:         cfg.Driver,
		DSN:            cfg.GetDatabaseURL(),
		MaxConnections: cfg.MaxConnections,
		MaxIdleConns:   cfg.MaxIdleConns,
		MaxLifetime:    cfg.MaxLifetime,
		ConnectRetries: cfg.ConnectRetries,
		Debug:          cfg.Debug,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := server.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

// AWS loads the shared SDK config. Static keys win over the default chain.
func AWS(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	return awsCfg, nil
}

// Gateway selects the outbound message provider
func Gateway(ctx context.Context, cfg *config.Config) (notify.Gateway, error) {
	switch cfg.Notifier.Provider {
	case "", "whatsapp":
		return notify.NewWhatsAppClient(notify.WhatsAppOptions{
			BaseURL:       cfg.WhatsApp.APIBaseURL,
			APIVersion:    cfg.WhatsApp.APIVersion,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
			AccessToken:   cfg.WhatsApp.AccessToken,
			CountryCode:   cfg.Notifier.CountryCode,
			Timeout:       cfg.WhatsApp.Timeout,
		}), nil
	case "sns":
		awsCfg, err := AWS(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
			if cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			}
		})
		return notify.NewSNSGateway(client, cfg.AWS.SNSSenderID, cfg.Notifier.CountryCode), nil
	default:
		return nil, fmt.Errorf("unknown notifier provider %q", cfg.Notifier.Provider)
	}
}

// Files selects where invoice PDFs are kept
func Files(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	switch cfg.Storage.Driver {
	case "", "local":
		return storage.NewLocalStore(cfg.Storage.LocalDir)
	case "s3":
		awsCfg, err := AWS(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
				o.UsePathStyle = true
			}
		})
		return storage.NewS3Store(client, cfg.AWS.S3Bucket, cfg.Storage.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Dedupe uses redis when an address is configured and process memory otherwise
func Dedupe(ctx context.Context, cfg config.RedisConfig) (dedupe.Store, error) {
	if cfg.Address == "" {
		return dedupe.NewMemoryStore(), nil
	}
	return dedupe.NewRedisStore(ctx, dedupe.RedisOptions{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, "broker:webhook:")
}

// Publisher streams activity to kafka when brokers are configured
func Publisher(cfg config.KafkaConfig) activity.Publisher {
	if len(cfg.Brokers) == 0 {
		return activity.NopPublisher{}
	}
	return activity.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}

// CloseAll closes every value that holds a connection, logging failures
func CloseAll(logger *zap.Logger, values ...any) {
	for _, v := range values {
		c, ok := v.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close resource", zap.String("type", fmt.Sprintf("%T", v)), zap.Error(err))
		}
	}
}
