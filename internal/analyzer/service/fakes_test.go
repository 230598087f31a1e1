package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"golang-zone-analyzer/internal/analyzer/config"
	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/internal/analyzer/geometry"
	"golang-zone-analyzer/internal/analyzer/render"
	"golang-zone-analyzer/internal/analyzer/repository"
	"golang-zone-analyzer/internal/analyzer/sop"
	"golang-zone-analyzer/pkg/logger"
	"golang-zone-analyzer/pkg/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	primaryReply = `{"trend":"uptrend","signal":"buy","pattern":"bullish_engulfing","confidence":0.85,
		"zone":{"price_high":1.1050,"price_low":1.1000,"zone_kind":"support"},"reasoning":"higher lows"}`
	entryReply = "```json\n" + `{"trend":"uptrend","signal":"buy","pattern":"bullish_engulfing","confidence":0.70,
		"inside_primary_zone":true,"zone":{"price_high":1.1030,"price_low":1.1010,"zone_kind":"support"}}` + "\n```"
)

func blankChart(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 200))
	for x := 0; x < 320; x++ {
		for y := 0; y < 200; y++ {
			img.Set(x, y, color.RGBA{R: 250, G: 250, B: 250, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// candleChart draws green candles climbing from the bottom left to the top right.
func candleChart(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 200))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 250, G: 250, B: 250, A: 255}), image.Point{}, draw.Src)
	green := image.NewUniform(color.RGBA{G: 200, A: 255})
	for x := 0; x <= 280; x += 10 {
		center := 160 - x*120/280
		draw.Draw(img, image.Rect(x, center-6, x+5, center+6), green, image.Point{}, draw.Src)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeSession struct {
	mu          sync.Mutex
	chart       []byte
	healthErr   error
	captureErrs map[string]error
	captured    []string
	released    int
}

func (f *fakeSession) ID() string { return "fake-session" }

func (f *fakeSession) Healthy(ctx context.Context) error { return f.healthErr }

func (f *fakeSession) Capture(ctx context.Context, pair, timeframe string) (*dto.ChartCapture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captured = append(f.captured, timeframe)
	if err := f.captureErrs[timeframe]; err != nil {
		return nil, err
	}
	return &dto.ChartCapture{
		Pair:        pair,
		Timeframe:   timeframe,
		Image:       f.chart,
		ContentType: "image/png",
		Scale:       &dto.PriceScale{PriceHigh: 1.12, PriceLow: 1.08, ImageWidth: 320, ImageHeight: 200},
	}, nil
}

func (f *fakeSession) Release(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	return nil
}

type fakeProvider struct {
	session *fakeSession
	err     error
	calls   int
}

func (f *fakeProvider) Acquire(ctx context.Context) (repository.CaptureSession, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

// fakeVision answers by timeframe, read from the prompt's opening sentence.
// before runs ahead of the reply for its timeframe.
type fakeVision struct {
	replies map[string]string
	errs    map[string]error
	before  map[string]func(ctx context.Context) error
}

func (f *fakeVision) Analyze(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	tf := promptTimeframe(prompt)
	if hook := f.before[tf]; hook != nil {
		if err := hook(ctx); err != nil {
			return "", err
		}
	}
	if err := f.errs[tf]; err != nil {
		return "", err
	}
	if reply, ok := f.replies[tf]; ok {
		return reply, nil
	}
	return "", errors.New("unexpected prompt")
}

func promptTimeframe(prompt string) string {
	for _, tf := range []string{"D1", "H4", "H1", "M15"} {
		if strings.Contains(prompt, "is the "+tf+" chart") {
			return tf
		}
	}
	return ""
}

type fakeStore struct {
	decision *dto.CombinedDecision
	images   []dto.RenderedImage
	err      error
}

func (f *fakeStore) Save(ctx context.Context, decision *dto.CombinedDecision, images []dto.RenderedImage) (*dto.StoredReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.decision = decision
	f.images = images
	paths := map[string]string{}
	for _, img := range images {
		paths[string(img.Role)] = "/tmp/" + string(img.Role) + ".png"
	}
	return &dto.StoredReport{Key: repository.ReportKey(decision), ReportPath: "/tmp/report.json", ImagePaths: paths}, nil
}

type fakeCache struct {
	mu  sync.Mutex
	set []*dto.CombinedDecision
}

func (f *fakeCache) Set(ctx context.Context, decision *dto.CombinedDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = append(f.set, decision)
	return nil
}

func (f *fakeCache) Get(ctx context.Context, pair string, strategy dto.StrategyName) (*dto.CombinedDecision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.set) - 1; i >= 0; i-- {
		if f.set[i].Pair == pair && f.set[i].Strategy == strategy {
			return f.set[i], nil
		}
	}
	return nil, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	alerts   []string
	messages []string
	photos   []string
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, text)
	return nil
}

func (f *fakeNotifier) SendMessageUser(text string, chatID int64, cfg tgbotapi.MessageConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeNotifier) SendPhotoUser(png []byte, name, caption string, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, name)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{Analyzer: config.Analyzer{
		MaxConcurrentJobs:   2,
		CaptureTimeout:      5 * time.Second,
		VisionTimeout:       5 * time.Second,
		PersistTimeout:      5 * time.Second,
		RedisStreamMaxRetry: 3,
	}}
}

type pipelineFixture struct {
	cfg      *config.Config
	session  *fakeSession
	provider *fakeProvider
	vision   *fakeVision
	store    *fakeStore
	cache    *fakeCache
	notifier *fakeNotifier
	pipeline Pipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		cfg:     testConfig(),
		session: &fakeSession{chart: blankChart(t), captureErrs: map[string]error{}},
		vision: &fakeVision{
			replies: map[string]string{"D1": primaryReply, "H4": entryReply},
			errs:    map[string]error{},
			before:  map[string]func(ctx context.Context) error{},
		},
		store:    &fakeStore{},
		cache:    &fakeCache{},
		notifier: &fakeNotifier{},
	}
	f.provider = &fakeProvider{session: f.session}
	f.pipeline = f.build()
	return f
}

func (f *pipelineFixture) build() Pipeline {
	registry := sop.NewRegistry(
		sop.NewSwing(sop.DefaultSwingSettings()),
		sop.NewScalping(sop.DefaultScalpingSettings()),
	)
	return NewPipeline(f.cfg, logger.NewNop(), registry,
		f.provider, f.vision, f.store, f.cache,
		geometry.NewEngine(geometry.Config{MinThickness: 8, Opacity: 0.25, BorderWidth: 2, LabelPadding: 3}),
		render.NewRenderer(), f.notifier, metrics.New(prometheus.NewRegistry()))
}
