package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/ds124wfegd/promostudio/internal/pkg/storage"
)

const storeUploadNote = "음식 가공본은 /v1/outpaint 호출 시 food/ 폴더에 N_food_AI.jpg 로 저장됩니다."

func (s *storeService) UploadStoreImages(ctx context.Context, uploads [][]byte, baseURL string) (*entity.StoreUploadResponse, error) {
	if len(uploads) == 0 {
		return nil, entity.ErrNoImages
	}

	// все файлы проверяются до выделения номера группы
	decoded := make([]image.Image, len(uploads))
	for i, data := range uploads {
		img, err := processor.DecodeImage(data)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}
		decoded[i] = img
	}

	group, err := s.sequence.Next(ctx)
	if err != nil {
		return nil, err
	}

	saved := make([]entity.SavedFile, 0, len(decoded))
	for i, img := range decoded {
		data, err := processor.JPEGBytes(processor.FlattenRGB(img))
		if err != nil {
			return nil, fmt.Errorf("encode image %d: %w", i+1, err)
		}

		relPath := storage.StorePath(group, i+1)
		if err := s.storage.Save(relPath, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("save image %d: %w", i+1, err)
		}

		name := storage.StoreName(group, i+1)
		saved = append(saved, entity.SavedFile{
			Filename: name,
			Path:     filepath.Join(s.storage.BasePath(), relPath),
			URL:      storage.PublicURL(baseURL, storage.StoreDir, name),
		})
	}

	return &entity.StoreUploadResponse{
		Group: group,
		Count: len(saved),
		Files: saved,
		Note:  storeUploadNote,
	}, nil
}
