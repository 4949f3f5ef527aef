package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"example.com/tigate/internal/common"
	"example.com/tigate/internal/mqtt"
	"example.com/tigate/internal/serialport"
	"example.com/tigate/internal/server"
	"example.com/tigate/internal/teleinfo"
)

type serialConfig struct {
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"readTimeoutMs"`
}

type mqttConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"clientId"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topicPrefix"`
	QoS         int    `yaml:"qos"`
}

type httpConfig struct {
	Port     int    `yaml:"port"`
	RulePack string `yaml:"rulePack"`
}

type logConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

type config struct {
	Serial serialConfig `yaml:"serial"`
	Mqtt   mqttConfig   `yaml:"mqtt"`
	Http   httpConfig   `yaml:"http"`
	Logs   logConfig    `yaml:"logs"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Serial.Device == "" {
		return cfg, errors.New("serial.device is required")
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = serialport.BaudStandard
	}
	if cfg.Serial.ReadTimeoutMs <= 0 {
		cfg.Serial.ReadTimeoutMs = 2000
	}
	if cfg.Mqtt.TopicPrefix == "" {
		cfg.Mqtt.TopicPrefix = "tigate"
	}
	if cfg.Logs.Directory == "" {
		cfg.Logs.Directory = filepath.Join(".", "logs")
	}
	if cfg.Logs.MaxSizeMB <= 0 {
		cfg.Logs.MaxSizeMB = 25
	}
	if cfg.Logs.MaxAgeDays <= 0 {
		cfg.Logs.MaxAgeDays = 7
	}
	if cfg.Logs.MaxBackups <= 0 {
		cfg.Logs.MaxBackups = 5
	}
	baseDir := filepath.Dir(path)
	if cfg.Http.RulePack != "" && !filepath.IsAbs(cfg.Http.RulePack) {
		cfg.Http.RulePack = filepath.Clean(filepath.Join(baseDir, cfg.Http.RulePack))
	}
	return cfg, nil
}

func setupLogging(cfg config) error {
	if err := os.MkdirAll(cfg.Logs.Directory, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Logs.Directory, "tid.log"),
		MaxSize:    cfg.Logs.MaxSizeMB,
		MaxAge:     cfg.Logs.MaxAgeDays,
		MaxBackups: cfg.Logs.MaxBackups,
		Compress:   cfg.Logs.Compress,
	}
	common.SetLogOutput(io.MultiWriter(os.Stdout, rotator))
	return nil
}

func main() {
	configPath := flag.String("config", "config/tid.yaml", "path to configuration file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config port)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := setupLogging(cfg); err != nil {
		log.Fatalf("setup logging: %v", err)
	}

	port, err := serialport.Open(serialport.Config{
		Device:      cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: time.Duration(cfg.Serial.ReadTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		common.Fatalf("open serial: %v", err)
	}
	defer port.Close()
	common.Logf("reading %s at %d baud", cfg.Serial.Device, cfg.Serial.Baud)

	var publisher *mqtt.Publisher
	if cfg.Mqtt.Broker != "" {
		publisher, err = mqtt.NewPublisher(mqtt.Options{
			Broker:      cfg.Mqtt.Broker,
			ClientID:    cfg.Mqtt.ClientID,
			Username:    cfg.Mqtt.Username,
			Password:    cfg.Mqtt.Password,
			TopicPrefix: cfg.Mqtt.TopicPrefix,
			QoS:         byte(cfg.Mqtt.QoS),
		})
		if err != nil {
			common.Fatalf("connect mqtt: %v", err)
		}
		defer publisher.Close()
		common.Logf("publishing to %s under %s/", cfg.Mqtt.Broker, cfg.Mqtt.TopicPrefix)
	}

	metrics := common.NewMetrics()
	metrics.Start()

	var httpServer *http.Server
	if cfg.Http.Port != 0 || *addr != "" {
		srv, err := server.NewServer(server.Options{RulePackPath: cfg.Http.RulePack})
		if err != nil {
			common.Fatalf("server init: %v", err)
		}
		listenAddr := *addr
		if listenAddr == "" {
			listenAddr = fmt.Sprintf(":%d", cfg.Http.Port)
		}
		httpServer = &http.Server{
			Addr:         listenAddr,
			Handler:      server.NewRouter(srv),
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
		}
		go func() {
			common.Logf("tid listening on %s", listenAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				common.Fatalf("listen: %v", err)
			}
		}()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		defer close(done)
		runDecodeLoop(port, publisher, cfg.Serial.Device, metrics, shutdownRequested(shutdown))
	}()

	<-done
	metrics.Stop()
	snap := metrics.Snapshot()
	common.Logf("decoded %d frames (%d invalid, %d parse errors), %s",
		snap.Frames, snap.Invalid, snap.ParseErrors, common.FormatBytes(snap.Bytes))

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			common.Logf("shutdown: %v", err)
		}
	}
	common.Logf("tid stopped")
}

// shutdownRequested converts a signal channel into a poll-friendly check.
func shutdownRequested(sig <-chan os.Signal) func() bool {
	return func() bool {
		select {
		case <-sig:
			return true
		default:
			return false
		}
	}
}

func runDecodeLoop(t teleinfo.Transport, pub *mqtt.Publisher, source string, metrics *common.Metrics, stop func() bool) {
	var leftover []byte
	for !stop() {
		rest, rec, err := teleinfo.Decode(t, leftover)
		leftover = rest
		if err != nil {
			if errors.Is(err, teleinfo.ErrParse) {
				metrics.IncParseError()
				common.Logf("frame dropped: %v", err)
				continue
			}
			common.Logf("read: %v", err)
			return
		}
		if rec == nil {
			continue
		}
		metrics.AddFrame(0, rec.Valid)
		if !rec.Valid {
			common.Logf("frame with checksum failure from %s", source)
		}
		if pub != nil {
			if err := pub.PublishRecord(source, rec); err != nil {
				common.Logf("publish: %v", err)
			}
		}
	}
}
