package service

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/promostudio/config"
	"github.com/ds124wfegd/promostudio/internal/database"
	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/ds124wfegd/promostudio/internal/pkg/copywriter"
	"github.com/ds124wfegd/promostudio/internal/pkg/inpaint"
	"github.com/ds124wfegd/promostudio/internal/pkg/kafka"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/ds124wfegd/promostudio/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidJPEG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	data, err := processor.JPEGBytes(img)
	require.NoError(t, err)
	return data
}

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
	images []entity.InlineImage
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, prompt string, images []entity.InlineImage) (string, error) {
	f.calls++
	f.prompt, f.images = prompt, images
	return f.reply, f.err
}

func TestGeneratePromoDebug(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewPromoService(gen, "m", storage.NewFileStorage(t.TempDir()), copywriter.NewFormatter(copywriter.FormatNewline))

	out, err := svc.GeneratePromo(context.Background(), entity.PromoRequest{StoreName: "소담", Mood: "따뜻한", Debug: true})
	require.NoError(t, err)

	variants := out["variants"].([]entity.PromoVariant)
	require.Len(t, variants, 1)
	assert.Equal(t, "소담 — 따뜻한 톤", variants[0].Headline)
	assert.Equal(t, "디버그 응답입니다.\n6~8줄 이상 문장 생성과 URL 삽입 포맷만 확인합니다!", variants[0].Body)
	assert.Zero(t, gen.calls)
}

func TestGeneratePromoWithStoredImages(t *testing.T) {
	fs := storage.NewFileStorage(t.TempDir())
	require.NoError(t, fs.Save(storage.FoodAIPath(2), strings.NewReader("food-ai")))
	require.NoError(t, fs.Save(storage.StorePath(2, 1), strings.NewReader("store-1")))
	require.NoError(t, fs.Save(storage.StorePath(1, 1), strings.NewReader("old-store")))

	gen := &fakeGenerator{reply: "```json\n{\"variants\":[{\"headline\":\"H\",\"body\":\"A. B. C.\",\"tags\":[],\"cta\":\"go\"}]}\n```"}
	svc := NewPromoService(gen, "m", fs, copywriter.NewFormatter(copywriter.FormatNewline))

	upload := entity.InlineImage{Data: []byte("upload"), MimeType: "image/png"}
	out, err := svc.GeneratePromo(context.Background(), entity.PromoRequest{
		StoreName:   "소담",
		Mood:        "따뜻한",
		Variants:    2,
		BaseURL:     "https://api.example.com",
		Attachments: []entity.InlineImage{upload},
	})
	require.NoError(t, err)

	// store images first, then the generated food image, then uploads
	require.Len(t, gen.images, 3)
	assert.Equal(t, "store-1", string(gen.images[0].Data))
	assert.Equal(t, "food-ai", string(gen.images[1].Data))
	assert.Equal(t, upload, gen.images[2])
	assert.Contains(t, gen.prompt, "총 2개")

	images := out["_images"].(*entity.PromoImages)
	require.NotNil(t, images.Group)
	assert.Equal(t, int64(2), *images.Group)
	assert.Equal(t, "2_food_AI.jpg", *images.FoodAI)
	assert.Equal(t, []string{"2_store_1.jpg"}, images.Stores)
	assert.Equal(t, []string{
		"https://api.example.com/images/food/2_food_AI.jpg",
		"https://api.example.com/images/store/2_store_1.jpg",
	}, images.URLs)

	variant := out["variants"].([]any)[0].(map[string]any)
	assert.Equal(t, "A.\nhttps://api.example.com/images/food/2_food_AI.jpg\nB.\nhttps://api.example.com/images/store/2_store_1.jpg\nC.", variant["body"])
}

func TestGeneratePromoRawReply(t *testing.T) {
	gen := &fakeGenerator{reply: "죄송합니다, JSON을 만들 수 없습니다."}
	svc := NewPromoService(gen, "m", storage.NewFileStorage(t.TempDir()), copywriter.NewFormatter(copywriter.FormatNewline))

	out, err := svc.GeneratePromo(context.Background(), entity.PromoRequest{StoreName: "a", Mood: "b"})
	require.NoError(t, err)

	assert.Equal(t, "죄송합니다, JSON을 만들 수 없습니다.", out["raw"])
	images := out["_images"].(*entity.PromoImages)
	assert.Nil(t, images.Group)
	assert.Empty(t, images.URLs)
}

func TestGeneratePromoModelError(t *testing.T) {
	gen := &fakeGenerator{err: entity.ErrLLMTimeout}
	svc := NewPromoService(gen, "m", storage.NewFileStorage(t.TempDir()), copywriter.NewFormatter(copywriter.FormatNewline))

	_, err := svc.GeneratePromo(context.Background(), entity.PromoRequest{StoreName: "a", Mood: "b"})
	assert.ErrorIs(t, err, entity.ErrLLMTimeout)
}

type fakeMasks struct {
	calls int
	err   error
}

func (f *fakeMasks) ForegroundMask(_ context.Context, img image.Image) (image.Image, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	b := img.Bounds()
	mask := image.NewGray(image.Rect(0, 0, b.Dx()/2, b.Dy()/2))
	return mask, nil
}

type fakePrompter struct {
	reply string
	err   error
}

func (f *fakePrompter) BackgroundPrompt(_ context.Context, _ string, _ []byte) (string, error) {
	return f.reply, f.err
}

type fakeInpainter struct {
	got inpaint.Request
	err error
}

func (f *fakeInpainter) Inpaint(_ context.Context, req inpaint.Request) (image.Image, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return image.NewRGBA(image.Rect(0, 0, 16, 16)), nil
}

func newAdService(masks *fakeMasks, prompter *fakePrompter, inpainter *fakeInpainter) AdImageService {
	return NewAdImageService(masks, prompter, inpainter, processor.NewRenderer(""), 1024)
}

func TestComposeAdImage(t *testing.T) {
	masks, inpainter := &fakeMasks{}, &fakeInpainter{}
	svc := newAdService(masks, &fakePrompter{err: errors.New("quota")}, inpainter)

	result, err := svc.Compose(context.Background(), entity.AdImageRequest{
		Image:        solidJPEG(t, 300, 200, color.White),
		UserPrompt:   "비 오는 네온 골목",
		Ratio:        "16:9",
		BaseSize:     256,
		ElementsJSON: `[{"type":"text","text":"OPEN"}, {"type":"logo","logo_index":1}, {"type":"logo","logo_index":0}]`,
		Logos:        [][]byte{solidJPEG(t, 10, 10, color.Black), []byte("not an image")},
	})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 448, 256), result.Image.Bounds())
	assert.Equal(t, fallbackBackgroundPrompt, result.Prompt)
	assert.Equal(t, 448, inpainter.got.Width)
	assert.Equal(t, 256, inpainter.got.Height)
	assert.Equal(t, image.Rect(0, 0, 448, 256), inpainter.got.Mask.Bounds())
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)
}

func TestComposeAdImageErrors(t *testing.T) {
	tests := []struct {
		name      string
		req       entity.AdImageRequest
		masks     *fakeMasks
		inpainter *fakeInpainter
		wantErr   error
		maskCalls int
	}{
		{
			name:    "invalid elements fail before any model call",
			req:     entity.AdImageRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x", ElementsJSON: `{"type":"text"}`},
			wantErr: entity.ErrInvalidElements,
		},
		{
			name:    "undecodable image",
			req:     entity.AdImageRequest{Image: []byte("garbage"), UserPrompt: "x"},
			wantErr: entity.ErrDecodeImage,
		},
		{
			name:    "degenerate size",
			req:     entity.AdImageRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x", BaseSize: 4},
			wantErr: entity.ErrInvalidSize,
		},
		{
			name:    "extreme ratio",
			req:     entity.AdImageRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x", Ratio: "100000:1"},
			wantErr: entity.ErrInvalidSize,
		},
		{
			name:    "base size above the limit",
			req:     entity.AdImageRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x", BaseSize: 100000},
			wantErr: entity.ErrInvalidSize,
		},
		{
			name:    "tall ratio above the limit",
			req:     entity.AdImageRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x", Ratio: "1:3", BaseSize: 512},
			wantErr: entity.ErrInvalidSize,
		},
		{
			name:    "missing prompt",
			req:     entity.AdImageRequest{Image: solidJPEG(t, 8, 8, color.White)},
			wantErr: entity.ErrMissingField,
		},
		{
			name:      "segmentation failure",
			req:       entity.AdImageRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x", BaseSize: 64},
			masks:     &fakeMasks{err: entity.ErrSegmentation},
			wantErr:   entity.ErrSegmentation,
			maskCalls: 1,
		},
		{
			name:      "inpaint failure",
			req:       entity.AdImageRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x", BaseSize: 64},
			inpainter: &fakeInpainter{err: entity.ErrInpaintUnavailable},
			wantErr:   entity.ErrInpaintUnavailable,
			maskCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masks, inpainter := tt.masks, tt.inpainter
			if masks == nil {
				masks = &fakeMasks{}
			}
			if inpainter == nil {
				inpainter = &fakeInpainter{}
			}
			svc := newAdService(masks, &fakePrompter{reply: "neon"}, inpainter)

			_, err := svc.Compose(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.maskCalls, masks.calls)
		})
	}
}

func TestUploadStoreImages(t *testing.T) {
	fs := storage.NewFileStorage(t.TempDir())
	seq := database.NewLocalGroupSequence(fs)
	svc := NewStoreService(fs, seq)

	resp, err := svc.UploadStoreImages(context.Background(), [][]byte{
		solidJPEG(t, 20, 20, color.White),
		solidJPEG(t, 30, 10, color.Black),
	}, "http://localhost:8000")
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.Group)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "1_store_2.jpg", resp.Files[1].Filename)
	assert.Equal(t, "http://localhost:8000/images/store/1_store_1.jpg", resp.Files[0].URL)
	assert.True(t, fs.Exists(storage.StorePath(1, 2)))
	assert.NotEmpty(t, resp.Note)
}

func TestUploadStoreImagesRejectsBadFile(t *testing.T) {
	fs := storage.NewFileStorage(t.TempDir())
	seq := database.NewLocalGroupSequence(fs)
	svc := NewStoreService(fs, seq)

	_, err := svc.UploadStoreImages(context.Background(), [][]byte{solidJPEG(t, 4, 4, color.White), []byte("nope")}, "")
	assert.ErrorIs(t, err, entity.ErrDecodeImage)

	_, err = svc.UploadStoreImages(context.Background(), nil, "")
	assert.ErrorIs(t, err, entity.ErrNoImages)

	current, err := seq.Current(context.Background())
	require.NoError(t, err)
	assert.Zero(t, current)
}

type fakeProcessor struct {
	mu      sync.Mutex
	groups  []int64
	err     error
	process chan entity.OutpaintTask
}

func (f *fakeProcessor) Outpaint(_ context.Context, group int64, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, group)
	return storage.FoodAIPath(group), f.err
}

func (f *fakeProcessor) Process(_ context.Context, task entity.OutpaintTask) error {
	f.process <- task
	return nil
}

type fakeProducer struct {
	topic string
	msg   interface{}
	err   error
}

func (f *fakeProducer) SendMessage(topic string, message interface{}) error {
	f.topic, f.msg = topic, message
	return f.err
}

func (f *fakeProducer) Close() error { return nil }

func TestOutpaintGroupAllocation(t *testing.T) {
	fs := storage.NewFileStorage(t.TempDir())
	seq := database.NewLocalGroupSequence(fs)
	proc := &fakeProcessor{}
	stores := NewStoreService(fs, seq)
	svc := NewOutpaintService(fs, seq, database.NewJobRepository(fs), &fakeProducer{}, proc, "outpaint-tasks")
	ctx := context.Background()

	_, err := stores.UploadStoreImages(ctx, [][]byte{solidJPEG(t, 8, 8, color.White)}, "")
	require.NoError(t, err)

	req := entity.OutpaintRequest{Image: solidJPEG(t, 16, 16, color.White), UserPrompt: "라멘"}

	group, err := svc.Outpaint(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), group, "pairs with the store upload")
	assert.True(t, fs.Exists(storage.FoodPath(1)))

	group, err = svc.Outpaint(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), group, "group 1 already has a food image")

	pinned := int64(7)
	req.Group = &pinned
	group, err = svc.Outpaint(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(7), group)

	assert.Equal(t, []int64{1, 2, 7}, proc.groups)
}

func TestOutpaintFailureIsWrapped(t *testing.T) {
	fs := storage.NewFileStorage(t.TempDir())
	proc := &fakeProcessor{err: errors.New("dalle refused")}
	svc := NewOutpaintService(fs, database.NewLocalGroupSequence(fs), database.NewJobRepository(fs), &fakeProducer{}, proc, "t")

	_, err := svc.Outpaint(context.Background(), entity.OutpaintRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x"})
	assert.ErrorIs(t, err, entity.ErrOutpaintFailed)

	_, err = svc.Outpaint(context.Background(), entity.OutpaintRequest{Image: []byte("bad"), UserPrompt: "x"})
	assert.ErrorIs(t, err, entity.ErrDecodeImage)
}

func TestEnqueuePublishesTask(t *testing.T) {
	fs := storage.NewFileStorage(t.TempDir())
	jobs := database.NewJobRepository(fs)
	producer := &fakeProducer{}
	svc := NewOutpaintService(fs, database.NewLocalGroupSequence(fs), jobs, producer, &fakeProcessor{}, "outpaint-tasks")

	accepted, err := svc.Enqueue(context.Background(), entity.OutpaintRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "피자", Ratio: "4:5"})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusProcessing, accepted.Status)
	assert.Equal(t, "outpaint-tasks", producer.topic)
	task := producer.msg.(entity.OutpaintTask)
	assert.Equal(t, accepted.ID, task.JobID)
	assert.Equal(t, "4:5", task.Ratio)

	job, err := svc.GetJob(accepted.ID)
	require.NoError(t, err)
	assert.Equal(t, accepted.Group, job.Group)

	require.NoError(t, svc.DeleteJob(accepted.ID))
	_, err = svc.GetJob(accepted.ID)
	assert.ErrorIs(t, err, entity.ErrJobNotFound)
}

func TestEnqueueProducerFailureMarksJob(t *testing.T) {
	fs := storage.NewFileStorage(t.TempDir())
	jobs := database.NewJobRepository(fs)
	svc := NewOutpaintService(fs, database.NewLocalGroupSequence(fs), jobs, &fakeProducer{err: errors.New("broker down")}, &fakeProcessor{}, "t")

	_, err := svc.Enqueue(context.Background(), entity.OutpaintRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x"})
	assert.Error(t, err)
}

func TestEnqueueWithoutBrokerRunsLocally(t *testing.T) {
	fs := storage.NewFileStorage(t.TempDir())
	proc := &fakeProcessor{process: make(chan entity.OutpaintTask, 1)}
	producer := kafka.NewProducer(config.KafkaConfig{})
	svc := NewOutpaintService(fs, database.NewLocalGroupSequence(fs), database.NewJobRepository(fs), producer, proc, "t")

	accepted, err := svc.Enqueue(context.Background(), entity.OutpaintRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x"})
	require.NoError(t, err)

	select {
	case task := <-proc.process:
		assert.Equal(t, accepted.ID, task.JobID)
		assert.Equal(t, "1:1", task.Ratio)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not processed")
	}
}

func TestOutpaintConcurrentUploadsClaimDistinctGroups(t *testing.T) {
	fs := storage.NewFileStorage(t.TempDir())
	seq := database.NewLocalGroupSequence(fs)
	stores := NewStoreService(fs, seq)
	svc := NewOutpaintService(fs, seq, database.NewJobRepository(fs), &fakeProducer{}, &fakeProcessor{}, "t")
	ctx := context.Background()

	_, err := stores.UploadStoreImages(ctx, [][]byte{solidJPEG(t, 8, 8, color.White)}, "")
	require.NoError(t, err)

	const uploads = 8
	req := entity.OutpaintRequest{Image: solidJPEG(t, 16, 16, color.White), UserPrompt: "김밥"}
	groups := make([]int64, uploads)
	errs := make([]error, uploads)

	var wg sync.WaitGroup
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			groups[i], errs[i] = svc.Outpaint(ctx, req)
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, uploads)
	for i, group := range groups {
		require.NoError(t, errs[i])
		assert.False(t, seen[group], "group %d handed out twice", group)
		seen[group] = true
		assert.True(t, fs.Exists(storage.FoodPath(group)))
	}
	assert.True(t, seen[1], "one upload pairs with the store group")
	assert.Len(t, seen, uploads)
}

func TestOutpaintSkipsGroupTakenByPinnedUpload(t *testing.T) {
	fs := storage.NewFileStorage(t.TempDir())
	seq := database.NewLocalGroupSequence(fs)
	svc := NewOutpaintService(fs, seq, database.NewJobRepository(fs), &fakeProducer{}, &fakeProcessor{}, "t")
	ctx := context.Background()
	req := entity.OutpaintRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x"}

	group, err := svc.Outpaint(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), group)

	pinned := int64(2)
	pinnedReq := req
	pinnedReq.Group = &pinned
	_, err = svc.Outpaint(ctx, pinnedReq)
	require.NoError(t, err)

	group, err = svc.Outpaint(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(3), group)
}

type blockingProcessor struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func (b *blockingProcessor) Outpaint(_ context.Context, group int64, _, _ string) (string, error) {
	return storage.FoodAIPath(group), nil
}

func (b *blockingProcessor) Process(ctx context.Context, _ entity.OutpaintTask) error {
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		b.err = ctx.Err()
	}
	return b.err
}

func TestShutdownWaitsForLocalTasks(t *testing.T) {
	tests := []struct {
		name    string
		release bool
		wantErr error
		procErr error
	}{
		{name: "task finishes", release: true},
		{name: "deadline cancels the task", wantErr: context.DeadlineExceeded, procErr: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := storage.NewFileStorage(t.TempDir())
			proc := &blockingProcessor{started: make(chan struct{}, 1), release: make(chan struct{})}
			svc := NewOutpaintService(fs, database.NewLocalGroupSequence(fs), database.NewJobRepository(fs),
				kafka.NewProducer(config.KafkaConfig{}), proc, "t")

			_, err := svc.Enqueue(context.Background(), entity.OutpaintRequest{Image: solidJPEG(t, 8, 8, color.White), UserPrompt: "x"})
			require.NoError(t, err)
			<-proc.started

			if tt.release {
				close(proc.release)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			err = svc.Shutdown(ctx)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.ErrorIs(t, proc.err, tt.procErr)
		})
	}
}
