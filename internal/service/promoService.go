package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/copywriter"
	"github.com/ds124wfegd/promostudio/internal/pkg/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const debugBody = "디버그 응답입니다. 6~8줄 이상 문장 생성과 URL 삽입 포맷만 확인합니다!"

func (s *promoService) GeneratePromo(ctx context.Context, req entity.PromoRequest) (map[string]any, error) {
	if req.Debug {
		return map[string]any{
			"variants": []entity.PromoVariant{{
				Headline: fmt.Sprintf("%s — %s 톤", req.StoreName, req.Mood),
				Body:     s.formatter.Format(debugBody, nil),
				Tags:     []string{"#debug", "#gin"},
				CTA:      "지금 바로 방문해 보세요",
			}},
		}, nil
	}

	images, paths, err := s.collectImages(req.BaseURL)
	if err != nil {
		return nil, err
	}

	attachments, err := s.loadAttachments(ctx, paths)
	if err != nil {
		return nil, err
	}
	attachments = append(attachments, req.Attachments...)

	raw, err := s.gen.Generate(ctx, s.model, copywriter.BuildPromoPrompt(req), attachments)
	if err != nil {
		return nil, err
	}
	raw = copywriter.StripCodeFence(raw)

	parsed, ok := copywriter.ParsePromo(raw, s.formatter, images.URLs)
	if !ok {
		logrus.WithField("length", len(raw)).Warn("promo reply is not a variants object, returning raw text")
		return map[string]any{"raw": raw, "_images": images}, nil
	}
	parsed["_images"] = images
	return parsed, nil
}

// collectImages picks the newest group that has a generated food image and
// lists the files of that group the copy should show. Store images come
// before the food image in the returned paths.
func (s *promoService) collectImages(baseURL string) (*entity.PromoImages, []string, error) {
	images := &entity.PromoImages{
		Stores: []string{},
		URLs:   []string{},
		Roots: map[string]string{
			storage.FoodDir:  filepath.Join(s.storage.BasePath(), storage.FoodDir),
			storage.StoreDir: filepath.Join(s.storage.BasePath(), storage.StoreDir),
		},
	}

	group, found, err := storage.LatestFoodAIGroup(s.storage)
	if err != nil {
		return nil, nil, fmt.Errorf("scan food images: %w", err)
	}
	if !found {
		return images, nil, nil
	}
	images.Group = &group

	foodAI := storage.FoodAIName(group)
	images.FoodAI = &foodAI
	images.URLs = append(images.URLs, storage.PublicURL(baseURL, storage.FoodDir, foodAI))

	stores, err := storage.StoreFiles(s.storage, group)
	if err != nil {
		return nil, nil, fmt.Errorf("scan store images: %w", err)
	}

	var paths []string
	for _, name := range stores {
		images.Stores = append(images.Stores, name)
		images.URLs = append(images.URLs, storage.PublicURL(baseURL, storage.StoreDir, name))
		paths = append(paths, filepath.Join(storage.StoreDir, name))
	}
	paths = append(paths, storage.FoodAIPath(group))
	return images, paths, nil
}

// loadAttachments reads the files concurrently, keeping their order.
// Unreadable files are skipped.
func (s *promoService) loadAttachments(ctx context.Context, paths []string) ([]entity.InlineImage, error) {
	loaded := make([][]byte, len(paths))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range paths {
		g.Go(func() error {
			data, err := s.storage.ReadFile(p)
			if err != nil {
				logrus.WithField("path", p).Warnf("attachment skipped: %v", err)
				return nil
			}
			loaded[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	attachments := make([]entity.InlineImage, 0, len(paths))
	for _, data := range loaded {
		if len(data) > 0 {
			attachments = append(attachments, entity.InlineImage{Data: data, MimeType: "image/jpeg"})
		}
	}
	return attachments, nil
}
