package main

import (
	"os"

	"github.com/Anthya1104/zoneraid/internal/cliraid"
	"github.com/Anthya1104/zoneraid/internal/config"
	"github.com/Anthya1104/zoneraid/internal/rlog"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := rlog.InitLogger(config.LogLevelInfo); err != nil {
		logrus.Fatalf("error initializing logger: %v", err)
	}

	if err := cliraid.ExecuteCmd(); err != nil {
		logrus.Errorf("error executing command: %v", err)
		os.Exit(1)
	}
}
