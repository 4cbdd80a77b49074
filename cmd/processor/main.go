// outpaint worker: consumes tasks published by the API
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/promostudio/config"
	"github.com/ds124wfegd/promostudio/internal/appServer"
	"github.com/ds124wfegd/promostudio/internal/pkg/processor"
	"github.com/sirupsen/logrus"
)

func main() {
	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatal(err)
	}
	if cfg.Kafka.Brokers == "" {
		cfg.Kafka.Brokers = config.GetEnv("KAFKA_BROKERS", "localhost:9094")
	}

	appServer.SetupLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack, err := appServer.NewStack(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to initialize outpaint stack: %s", err.Error())
	}
	defer stack.Close()

	processor.StartImageProcessorConsumer(ctx, cfg.Kafka, stack.Processor, cfg.Kafka.Workers)
}
