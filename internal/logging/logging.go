package logging

import (
	"fmt"
	stdLog "log"
	"os"
	"path/filepath"
	"time"

	zeroLog "github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/acoder2b/iamcdkapp/configs"
)

// Init sets up the log directory and session logfile.
func Init() {
	// user has not specified any action, no need to setup a logfile
	if len(os.Args[1:]) == 0 {
		return
	}

	config := configs.ReadConfig()

	logfileName := fmt.Sprintf("log_%d.log", time.Now().Unix())

	if _, err := os.Stat(config.AppFolderPath); os.IsNotExist(err) {
		if err := os.MkdirAll(config.AppFolderPath, os.ModePerm); err != nil {
			stdLog.Panicf("unable to create %s directory: %s", config.AppFolderPath, err)
		}
	}

	logsFolder := filepath.Join(config.AppFolderPath, config.LogPath)
	if err := os.MkdirAll(logsFolder, os.ModePerm); err != nil {
		stdLog.Panicf("unable to create %s directory: %s", logsFolder, err)
	}

	logfile := filepath.Join(logsFolder, logfileName)
	logFileObj, err := os.OpenFile(logfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		stdLog.Panicf("unable to store log location, error is: %s - please verify the current user has write access to this directory", err)
	}

	// this Go standard log is active to keep compatibility with current code base
	stdLog.SetOutput(logFileObj)
	stdLog.SetPrefix("LOG: ")
	stdLog.SetFlags(stdLog.Ldate)

	consoleWriter := zeroLog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	log.Logger = zeroLog.New(zeroLog.MultiLevelWriter(logFileObj, consoleWriter)).With().Timestamp().Logger()

	viper.Set("iamcdkapp-paths.logs-dir", logsFolder)
	viper.Set("iamcdkapp-paths.log-file", logfile)
	viper.Set("iamcdkapp-paths.log-file-name", logfileName)
}
