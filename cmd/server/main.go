package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/joho/godotenv"
	"github.com/nimroute/nim-proxy/internal/cmd"
	"github.com/nimroute/nim-proxy/internal/config"
	"github.com/nimroute/nim-proxy/internal/util"
	log "github.com/sirupsen/logrus"
)

type LogFormatter struct {
}

func (m *LogFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	newLog := fmt.Sprintf("[%s] [%s] [%s:%d] %s\n", timestamp, entry.Level, path.Base(entry.Caller.File), entry.Caller.Line, entry.Message)

	b.WriteString(newLog)
	return b.Bytes(), nil
}

func init() {
	log.SetOutput(os.Stdout)
	log.SetReportCaller(true)
	log.SetFormatter(&LogFormatter{})
}

func main() {
	var configPath string

	flag.StringVar(&configPath, "config", "", "Configure File Path")
	flag.Parse()

	// Pick up NIM_API_KEY and friends from a local .env when present.
	_ = godotenv.Load()

	// Without an explicit -config, use ./config.yaml when it exists and
	// run on built-in defaults otherwise.
	if configPath == "" {
		wd, errWd := os.Getwd()
		if errWd != nil {
			log.Fatalf("failed to get working directory: %v", errWd)
		}
		candidate := path.Join(wd, "config.yaml")
		if _, errStat := os.Stat(candidate); errStat == nil {
			configPath = candidate
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	util.SetLogLevel(cfg)

	// Fail fast before binding a socket: the proxy is useless without the
	// upstream credential.
	if errValidate := cfg.Validate(); errValidate != nil {
		log.Fatalf("invalid configuration: %v", errValidate)
	}

	cmd.StartService(cfg, configPath)
}
