// launching the http server, inpaint warm-up, group sequence and kafka
package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/promostudio/config"
	"github.com/ds124wfegd/promostudio/internal/pkg/copywriter"
	"github.com/ds124wfegd/promostudio/internal/pkg/inpaint"
	"github.com/ds124wfegd/promostudio/internal/pkg/kafka"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/ds124wfegd/promostudio/internal/pkg/segment"
	"github.com/ds124wfegd/promostudio/internal/service"
	"github.com/ds124wfegd/promostudio/internal/transport"
	"github.com/gin-gonic/gin"

	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       time.Minute,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(logrus.StandardLogger().WriterLevel(logrus.ErrorLevel), "", 0),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	SetupLogging(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stack, err := NewStack(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to initialize services: %s", err.Error())
	}
	defer stack.Close()

	pipeline := inpaint.Shared(cfg.Inpaint)
	// первая загрузка чекпоинта долгая, не блокируем старт
	go func() {
		if err := pipeline.Load(ctx); err != nil {
			logrus.Warnf("inpaint pipeline not ready yet: %v", err)
		}
	}()

	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	promoService := service.NewPromoService(stack.Gemini, stack.Gemini.Model(), stack.Storage,
		copywriter.NewFormatter(cfg.App.BodyFormat))
	adImageService := service.NewAdImageService(segment.NewClient(cfg.Segment), stack.Assistant, pipeline,
		processor.NewRenderer(cfg.App.FontPath), cfg.App.MaxDimension)
	storeService := service.NewStoreService(stack.Storage, stack.Sequence)
	outpaintService := service.NewOutpaintService(stack.Storage, stack.Sequence, stack.Jobs, producer,
		stack.Processor, cfg.Kafka.Topic)

	handler := transport.NewHandler(promoService, adImageService, storeService, outpaintService,
		stack.Gemini.Model(), pipeline, cfg.App.MaxDimension)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		err := srv.Run(cfg, transport.InitRoutes(handler, cfg.App.ImageDir, cfg.App.MaxUploadSize))
		if err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr":    cfg.Server.Host + ":" + cfg.Server.Port,
		"version": cfg.Server.AppVersion,
		"model":   stack.Gemini.Model(),
	}).Info("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	if err := outpaintService.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("local outpaint tasks interrupted: %s", err.Error())
	}
}
