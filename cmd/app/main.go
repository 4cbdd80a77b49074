// entry point to the promo API
package main

import (
	"github.com/ds124wfegd/promostudio/config"
	"github.com/ds124wfegd/promostudio/internal/appServer"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

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

	appServer.NewServer(cfg)
}
