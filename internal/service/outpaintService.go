package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/kafka"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/ds124wfegd/promostudio/internal/pkg/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxClaimAttempts = 8

func (s *outpaintService) Outpaint(ctx context.Context, req entity.OutpaintRequest) (int64, error) {
	group, err := s.storeSource(ctx, req)
	if err != nil {
		return 0, err
	}

	if _, err := s.processor.Outpaint(ctx, group, req.UserPrompt, ratioOrDefault(req.Ratio)); err != nil {
		return group, fmt.Errorf("%w: %w", entity.ErrOutpaintFailed, err)
	}
	return group, nil
}

func (s *outpaintService) Enqueue(ctx context.Context, req entity.OutpaintRequest) (*entity.OutpaintAccepted, error) {
	group, err := s.storeSource(ctx, req)
	if err != nil {
		return nil, err
	}

	// Создаем запись в репозитории
	now := time.Now()
	job := &entity.OutpaintJob{
		ID:        uuid.New().String(),
		Group:     group,
		Status:    entity.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.Save(job); err != nil {
		return nil, err
	}

	// Отправляем в Kafka для обработки
	task := entity.OutpaintTask{
		JobID:      job.ID,
		Group:      group,
		UserPrompt: req.UserPrompt,
		Ratio:      ratioOrDefault(req.Ratio),
	}
	if kafka.IsMock(s.producer) {
		s.local.Add(1)
		go s.runLocally(task)
		return &entity.OutpaintAccepted{ID: job.ID, Group: group, Status: job.Status}, nil
	}
	if err := s.producer.SendMessage(s.topic, task); err != nil {
		_ = s.jobs.UpdateStatus(job.ID, entity.StatusFailed, nil, err.Error())
		return nil, err
	}

	return &entity.OutpaintAccepted{ID: job.ID, Group: group, Status: job.Status}, nil
}

// runLocally processes a task in this process when no broker is available.
func (s *outpaintService) runLocally(task entity.OutpaintTask) {
	defer s.local.Done()
	if err := s.processor.Process(s.baseCtx, task); err != nil {
		logrus.WithField("job_id", task.JobID).Errorf("local outpaint failed: %v", err)
	}
}

// Shutdown waits for tasks running in this process. When ctx expires first
// the remaining tasks are cancelled and Shutdown returns ctx.Err().
func (s *outpaintService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.local.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

func (s *outpaintService) GetJob(id string) (*entity.OutpaintJob, error) {
	return s.jobs.FindByID(id)
}

func (s *outpaintService) DeleteJob(id string) error {
	return s.jobs.Delete(id)
}

// storeSource validates the upload and saves it as N_food.jpg.
func (s *outpaintService) storeSource(ctx context.Context, req entity.OutpaintRequest) (int64, error) {
	if strings.TrimSpace(req.UserPrompt) == "" {
		return 0, entity.ErrMissingField
	}
	src, err := processor.DecodeImage(req.Image)
	if err != nil {
		return 0, err
	}

	data, err := processor.JPEGBytes(processor.FlattenRGB(src))
	if err != nil {
		return 0, fmt.Errorf("encode upload: %w", err)
	}

	if req.Group != nil && *req.Group > 0 {
		group := *req.Group
		if err := s.storage.Save(storage.FoodPath(group), bytes.NewReader(data)); err != nil {
			return 0, fmt.Errorf("save upload: %w", err)
		}
		return group, nil
	}
	return s.claimGroup(ctx, data)
}

// claimGroup pairs the food image with the store images uploaded just before
// it: the current group is taken while it has no food image, otherwise a new
// one is allocated. The food file is created exclusively, so a group is
// claimed by exactly one upload.
func (s *outpaintService) claimGroup(ctx context.Context, data []byte) (int64, error) {
	current, err := s.sequence.Current(ctx)
	if err != nil {
		return 0, err
	}
	if current > 0 {
		err := s.storage.SaveNew(storage.FoodPath(current), bytes.NewReader(data))
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("save upload: %w", err)
		}
	}

	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		group, err := s.sequence.Next(ctx)
		if err != nil {
			return 0, err
		}
		err = s.storage.SaveNew(storage.FoodPath(group), bytes.NewReader(data))
		if err == nil {
			return group, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("save upload: %w", err)
		}
		// группа уже занята явным group из запроса
		logrus.WithField("group", group).Warn("group already has a food image, allocating another")
	}
	return 0, fmt.Errorf("save upload: no free group after %d attempts", maxClaimAttempts)
}

func ratioOrDefault(ratio string) string {
	if strings.TrimSpace(ratio) == "" {
		return processor.DefaultRatio
	}
	return ratio
}
