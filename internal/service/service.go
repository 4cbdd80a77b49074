package service

import (
	"context"
	"image"
	"sync"

	"github.com/ds124wfegd/promostudio/internal/database"
	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/copywriter"
	"github.com/ds124wfegd/promostudio/internal/pkg/gemini"
	"github.com/ds124wfegd/promostudio/internal/pkg/inpaint"
	"github.com/ds124wfegd/promostudio/internal/pkg/kafka"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/ds124wfegd/promostudio/internal/pkg/storage"
)

type PromoService interface {
	GeneratePromo(ctx context.Context, req entity.PromoRequest) (map[string]any, error)
}

type AdImageService interface {
	Compose(ctx context.Context, req entity.AdImageRequest) (*entity.AdImageResult, error)
}

type StoreService interface {
	UploadStoreImages(ctx context.Context, images [][]byte, baseURL string) (*entity.StoreUploadResponse, error)
}

type OutpaintService interface {
	// Outpaint stores the upload as N_food.jpg and writes N_food_AI.jpg
	// before returning N.
	Outpaint(ctx context.Context, req entity.OutpaintRequest) (int64, error)
	// Enqueue stores the upload and hands the generation to the worker.
	Enqueue(ctx context.Context, req entity.OutpaintRequest) (*entity.OutpaintAccepted, error)
	GetJob(id string) (*entity.OutpaintJob, error)
	DeleteJob(id string) error
	// Shutdown waits for tasks running in this process when no broker is
	// configured.
	Shutdown(ctx context.Context) error
}

// MaskGenerator returns a foreground mask, white where the subject is.
type MaskGenerator interface {
	ForegroundMask(ctx context.Context, img image.Image) (image.Image, error)
}

type BackgroundPrompter interface {
	BackgroundPrompt(ctx context.Context, userPrompt string, canvasPNG []byte) (string, error)
}

type Inpainter interface {
	Inpaint(ctx context.Context, req inpaint.Request) (image.Image, error)
}

type promoService struct {
	gen       gemini.Generator
	model     string
	storage   storage.FileStorage
	formatter copywriter.Formatter
}

type adImageService struct {
	masks        MaskGenerator
	prompter     BackgroundPrompter
	inpainter    Inpainter
	renderer     *processor.Renderer
	maxDimension int
}

type storeService struct {
	storage  storage.FileStorage
	sequence database.GroupSequence
}

type outpaintService struct {
	storage   storage.FileStorage
	sequence  database.GroupSequence
	jobs      database.JobRepository
	producer  kafka.Producer
	processor processor.ImageProcessor
	topic     string

	local   sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewPromoService(gen gemini.Generator, model string, storage storage.FileStorage, formatter copywriter.Formatter) PromoService {
	return &promoService{
		gen:       gen,
		model:     model,
		storage:   storage,
		formatter: formatter,
	}
}

// NewAdImageService builds the ad-image pipeline. maxDimension bounds both
// sides of the canvas; zero means processor.DefaultMaxDimension.
func NewAdImageService(masks MaskGenerator, prompter BackgroundPrompter, inpainter Inpainter,
	renderer *processor.Renderer, maxDimension int) AdImageService {
	if maxDimension <= 0 {
		maxDimension = processor.DefaultMaxDimension
	}
	return &adImageService{
		masks:        masks,
		prompter:     prompter,
		inpainter:    inpainter,
		renderer:     renderer,
		maxDimension: maxDimension,
	}
}

func NewStoreService(storage storage.FileStorage, sequence database.GroupSequence) StoreService {
	return &storeService{storage: storage, sequence: sequence}
}

func NewOutpaintService(storage storage.FileStorage, sequence database.GroupSequence, jobs database.JobRepository,
	producer kafka.Producer, processor processor.ImageProcessor, topic string) OutpaintService {
	baseCtx, cancel := context.WithCancel(context.Background())
	return &outpaintService{
		storage:   storage,
		sequence:  sequence,
		jobs:      jobs,
		producer:  producer,
		processor: processor,
		topic:     topic,
		baseCtx:   baseCtx,
		cancel:    cancel,
	}
}
