package store

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/internal/bowl"
)

const (
	KindFile  = "file"
	KindMongo = "mongo"

	DefaultFilePath = "bowl_data.json"
)

// Store persists registry snapshots.
type Store interface {
	Load(ctx context.Context) (bowl.Snapshot, error)
	Save(ctx context.Context, s bowl.Snapshot) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// New builds the store selected by store.kind.
func New(config *apt.Config, logger apt.Logger) (Store, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	kind := config.GetStringOrDef("store.kind", KindFile)
	switch kind {
	case KindFile:
		path := config.GetStringOrDef("store.file.path", DefaultFilePath)
		return NewFileStore(path, logger), nil
	case KindMongo:
		return NewMongoStore(config, logger), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}
