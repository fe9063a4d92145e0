package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/retainflow/config"
)

// Sink names accepted in config.AuditConfig.Sinks.
const (
	SinkFile     = "file"
	SinkDatabase = "database"
	SinkRedis    = "redis"
	SinkMongo    = "mongo"
	SinkKafka    = "kafka"
)

// Deps carries the shared clients a sink may need.
type Deps struct {
	DB       *gorm.DB
	Redis    redis.UniversalClient
	Observer ResultObserver
	Logger   *zap.Logger
}

// Build assembles the configured sinks. With no sinks configured the file
// sink is used. On error every sink opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, deps Deps) (*Multi, error) {
	names := cfg.Audit.Sinks
	if len(names) == 0 {
		names = []string{SinkFile}
	}

	var sinks []Named
	fail := func(err error) (*Multi, error) {
		closeErr := NewMulti(sinks, nil, nil).Close()
		return nil, errors.Join(err, closeErr)
	}

	for _, name := range names {
		var (
			s   Sink
			err error
		)
		switch name {
		case SinkFile:
			s, err = NewFileSink(cfg.Audit.FilePath)
		case SinkDatabase:
			if deps.DB == nil {
				err = fmt.Errorf("audit sink %q requires a database", name)
				break
			}
			s = NewGormSink(deps.DB)
		case SinkRedis:
			if deps.Redis == nil {
				err = fmt.Errorf("audit sink %q requires redis", name)
				break
			}
			s = NewRedisSink(deps.Redis, cfg.Audit.RedisStream, cfg.Audit.RedisMaxLen)
		case SinkMongo:
			s, err = ConnectMongo(ctx, cfg.Mongo, cfg.Audit.MongoCollection)
		case SinkKafka:
			s, err = NewKafkaSink(cfg.Kafka, cfg.Audit.KafkaTopic)
		default:
			err = fmt.Errorf("unsupported audit sink: %s", name)
		}
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, Named{Name: name, Sink: s})
	}
	return NewMulti(sinks, deps.Observer, deps.Logger), nil
}
