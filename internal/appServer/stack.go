package appServer

import (
	"context"
	"time"

	"github.com/ds124wfegd/promostudio/config"
	"github.com/ds124wfegd/promostudio/internal/database"
	"github.com/ds124wfegd/promostudio/internal/pkg/dalle"
	"github.com/ds124wfegd/promostudio/internal/pkg/gemini"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/ds124wfegd/promostudio/internal/pkg/segment"
	"github.com/ds124wfegd/promostudio/internal/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Stack holds the components shared by the API server and the outpaint
// worker.
type Stack struct {
	Storage   storage.FileStorage
	Jobs      database.JobRepository
	Sequence  database.GroupSequence
	Gemini    *gemini.Client
	Assistant *gemini.PromptAssistant
	Processor processor.ImageProcessor

	redis *redis.Client
}

func NewStack(ctx context.Context, cfg *config.Config) (*Stack, error) {
	fileStorage := storage.NewFileStorage(cfg.App.ImageDir)

	geminiClient, err := gemini.NewClient(ctx, cfg.Gemini)
	if err != nil {
		return nil, err
	}
	assistant := gemini.NewPromptAssistant(geminiClient, cfg.Gemini.AssistModel, cfg.Gemini.CacheTTL)

	outpainter := processor.NewOutpainter(assistant, segment.NewClient(cfg.Segment),
		dalle.NewEditor(cfg.OpenAI), cfg.App.OutpaintSize)
	jobs := database.NewJobRepository(fileStorage)

	s := &Stack{
		Storage:   fileStorage,
		Jobs:      jobs,
		Gemini:    geminiClient,
		Assistant: assistant,
		Processor: processor.NewImageProcessor(fileStorage, jobs, outpainter),
	}
	s.Sequence = s.newSequence(ctx, cfg.Redis)
	return s, nil
}

// newSequence prefers the shared redis counter so that the API and the
// worker agree on group numbers; without redis the counter lives on disk.
func (s *Stack) newSequence(ctx context.Context, cfg config.RedisConfig) database.GroupSequence {
	if cfg.Addr == "" {
		return database.NewLocalGroupSequence(s.Storage)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logrus.WithField("addr", cfg.Addr).Warnf("Redis unavailable, using local group counter: %v", err)
		_ = client.Close()
		return database.NewLocalGroupSequence(s.Storage)
	}

	s.redis = client
	logrus.WithField("addr", cfg.Addr).Info("Group counter stored in Redis")
	return database.NewRedisGroupSequence(client, cfg.Key, func() (int64, error) {
		return storage.MaxGroup(s.Storage)
	})
}

func (s *Stack) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logrus.Errorf("error closing redis client: %v", err)
		}
	}
}
