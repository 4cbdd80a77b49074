package database

import (
	"context"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/storage"
	"github.com/redis/go-redis/v9"
)

type JobRepository interface {
	Save(job *entity.OutpaintJob) error
	FindByID(id string) (*entity.OutpaintJob, error)
	UpdateStatus(id, status string, files map[string]string, errMsg string) error
	Delete(id string) error
}

type fileJobRepository struct {
	storage storage.FileStorage
}

// GroupSequence allocates the numeric group shared by store and food images.
type GroupSequence interface {
	// Next allocates and returns a new group number.
	Next(ctx context.Context) (int64, error)
	// Current returns the most recently allocated group, 0 if none.
	Current(ctx context.Context) (int64, error)
}

type redisGroupSequence struct {
	client *redis.Client
	key    string
	seed   func() (int64, error)
}

type localGroupSequence struct {
	storage storage.FileStorage
	value   int64
	loaded  bool
}
