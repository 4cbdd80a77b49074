package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ds124wfegd/promostudio/config"
	"github.com/ds124wfegd/promostudio/internal/database"
	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/storage"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type ImageProcessor interface {
	// Outpaint turns N_food.jpg of the group into N_food_AI.jpg and returns
	// the stored path.
	Outpaint(ctx context.Context, group int64, userPrompt, ratio string) (string, error)
	// Process runs an outpaint task and records its progress on the job.
	Process(ctx context.Context, task entity.OutpaintTask) error
}

type imageProcessor struct {
	storage    storage.FileStorage
	jobs       database.JobRepository
	outpainter *Outpainter
}

func NewImageProcessor(storage storage.FileStorage, jobs database.JobRepository, outpainter *Outpainter) ImageProcessor {
	return &imageProcessor{storage: storage, jobs: jobs, outpainter: outpainter}
}

func (p *imageProcessor) Outpaint(ctx context.Context, group int64, userPrompt, ratio string) (string, error) {
	// Загружаем оригинальное изображение
	data, err := p.storage.ReadFile(storage.FoodPath(group))
	if err != nil {
		return "", fmt.Errorf("load food image: %w", err)
	}
	src, err := DecodeImage(data)
	if err != nil {
		return "", err
	}

	result, err := p.outpainter.Outpaint(ctx, src, userPrompt, ratio)
	if err != nil {
		return "", err
	}

	encoded, err := JPEGBytes(FlattenRGB(result))
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	outputPath := storage.FoodAIPath(group)
	if err := p.storage.Save(outputPath, bytes.NewReader(encoded)); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	return outputPath, nil
}

func (p *imageProcessor) Process(ctx context.Context, task entity.OutpaintTask) error {
	logrus.WithFields(logrus.Fields{"job_id": task.JobID, "group": task.Group}).Info("processing outpaint task")

	if err := p.jobs.UpdateStatus(task.JobID, entity.StatusProcessing, nil, ""); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	outputPath, err := p.Outpaint(ctx, task.Group, task.UserPrompt, task.Ratio)
	if err != nil {
		// Обновляем статус
		if uerr := p.jobs.UpdateStatus(task.JobID, entity.StatusFailed, nil, err.Error()); uerr != nil {
			logrus.WithField("job_id", task.JobID).Errorf("failed to mark job failed: %v", uerr)
		}
		return err
	}

	files := map[string]string{
		"food":    storage.FoodPath(task.Group),
		"food_ai": outputPath,
	}
	if err := p.jobs.UpdateStatus(task.JobID, entity.StatusCompleted, files, ""); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	logrus.WithField("job_id", task.JobID).Info("outpaint task completed")
	return nil
}

// StartImageProcessorConsumer reads outpaint tasks until ctx is cancelled.
// At most workers tasks run at the same time.
func StartImageProcessorConsumer(ctx context.Context, cfg config.KafkaConfig, processor ImageProcessor, workers int) {
	brokers := strings.Split(cfg.Brokers, ",")
	if workers <= 0 {
		workers = 1
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	defer reader.Close()

	logrus.WithFields(logrus.Fields{
		"brokers": brokers,
		"topic":   cfg.Topic,
		"group":   cfg.GroupID,
	}).Info("Outpaint consumer started")

	slots := make(chan struct{}, workers)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logrus.Info("Outpaint consumer stopped")
				return
			}
			logrus.Errorf("Error reading message from Kafka: %v", err)
			continue
		}

		logrus.WithFields(logrus.Fields{
			"topic":     msg.Topic,
			"partition": msg.Partition,
			"offset":    msg.Offset,
		}).Debug("received message")

		var task entity.OutpaintTask
		if err := json.Unmarshal(msg.Value, &task); err != nil {
			logrus.Errorf("Failed to parse task: %v", err)
			continue
		}

		slots <- struct{}{}
		wg.Add(1)
		go func(t entity.OutpaintTask) {
			defer func() {
				<-slots
				wg.Done()
			}()
			if err := processor.Process(ctx, t); err != nil {
				logrus.WithField("job_id", t.JobID).Errorf("Processing failed: %v", err)
			}
		}(task)
	}
}
