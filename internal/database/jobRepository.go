package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/storage"
)

const jobsDir = "jobs"

// status updates are read-modify-write on a single file
var jobMu sync.Mutex

func NewJobRepository(storage storage.FileStorage) JobRepository {
	return &fileJobRepository{storage: storage}
}

func (r *fileJobRepository) Save(job *entity.OutpaintJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return r.storage.Save(r.getJobPath(job.ID), bytes.NewReader(data))
}

func (r *fileJobRepository) FindByID(id string) (*entity.OutpaintJob, error) {
	reader, err := r.storage.Get(r.getJobPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, entity.ErrJobNotFound
		}
		return nil, err
	}
	defer reader.Close()

	var job entity.OutpaintJob
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&job); err != nil {
		return nil, err
	}

	return &job, nil
}

func (r *fileJobRepository) UpdateStatus(id, status string, files map[string]string, errMsg string) error {
	jobMu.Lock()
	defer jobMu.Unlock()

	job, err := r.FindByID(id)
	if err != nil {
		return err
	}

	job.Status = status
	job.Error = errMsg
	if files != nil {
		job.Files = files
	}
	job.UpdatedAt = time.Now()

	return r.Save(job)
}

func (r *fileJobRepository) Delete(id string) error {
	if err := r.storage.Delete(r.getJobPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entity.ErrJobNotFound
		}
		return err
	}
	return nil
}

func (r *fileJobRepository) getJobPath(id string) string {
	return filepath.Join(jobsDir, filepath.Base(id)+".json")
}
