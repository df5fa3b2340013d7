package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/oblq/syspower/modules/sampler"
	"github.com/oblq/syspower/modules/smc"
)

const configFileName = "syspower.yaml"

type Config struct {
	// Interval is the time between samples, eg. `1s` or `500ms`.
	Interval time.Duration `yaml:"interval"`

	// Keys are the four character controller keys to sample, eg. `PSTR`.
	Keys []string `yaml:"keys"`

	// Transport is one of iokit, usb or simulator.
	Transport string `yaml:"transport"`

	// Format is the output format, text or cbor.
	Format sampler.Format `yaml:"format"`

	// USB selects the bridge device when Transport is usb.
	USB struct {
		VID uint16 `yaml:"vid"`
		PID uint16 `yaml:"pid"`
	} `yaml:"usb"`

	// Simulator is the fixture file used when Transport is simulator,
	// relative to the config directory.
	Simulator string `yaml:"simulator"`

	// ConfigCheckInterval is the time between config file checks,
	// zero disables hot reload.
	ConfigCheckInterval time.Duration `yaml:"config_check_interval"`
}

func defaultConfig() *Config {
	return &Config{
		Interval:  time.Second,
		Keys:      []string{smc.KeyTotalPower.String()},
		Transport: transportIOKit,
		Format:    sampler.FormatText,
	}
}

func (c *Config) validate() error {
	if c.Interval <= 0 {
		return errors.New("interval must be greater than zero")
	}
	if len(c.Keys) == 0 {
		return errors.New("at least one key is required")
	}
	for _, k := range c.Keys {
		if _, err := smc.ParseKey(k); err != nil {
			return err
		}
	}
	switch c.Transport {
	case transportIOKit, transportUSB, transportSimulator:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.Format {
	case sampler.FormatText, sampler.FormatCBOR:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}

type SysPower struct {
	mutex sync.Mutex

	configPath string
	configStat os.FileInfo
	config     *Config

	// overrides is applied on top of every loaded config, flags use it.
	overrides func(*Config)

	out io.Writer
	log *zap.Logger

	transport transport
	cancel    context.CancelFunc
	done      chan struct{}
	running   bool

	watcherTicker *time.Ticker
}

func New(configPath string, overrides func(*Config), out io.Writer, log *zap.Logger) (sp *SysPower, err error) {
	sp = &SysPower{
		configPath: configPath,
		overrides:  overrides,
		out:        out,
		log:        log,
	}

	if sp.config, err = sp.loadConfig(); err != nil {
		return nil, err
	}

	return sp, nil
}

// loadConfig reads syspower.yaml, a missing file means defaults.
func (sp *SysPower) loadConfig() (*Config, error) {
	config := defaultConfig()

	path := filepath.Join(sp.configPath, configFileName)
	stat, err := os.Stat(path)
	switch {
	case err == nil:
		sp.configStat = stat

		data, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err = yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
	case os.IsNotExist(err):
		sp.configStat = nil
	default:
		return nil, err
	}

	if sp.overrides != nil {
		sp.overrides(config)
	}

	if err = config.validate(); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return config, nil
}

// keyHandles opens the transport and resolves every configured key.
// When the controller cannot be reached the keys are resolved against a
// nil connection and read as absent.
func (sp *SysPower) keyHandles() []sampler.Source {
	var conn smc.Conn

	t, err := openTransport(sp.config, sp.configPath)
	if err != nil {
		sp.log.Error("controller unavailable", zap.String("transport", sp.config.Transport), zap.Error(err))
	} else {
		sp.transport = t
		conn = t
	}

	sources := make([]sampler.Source, 0, len(sp.config.Keys))
	for _, name := range sp.config.Keys {
		key, _ := smc.ParseKey(name)

		k := smc.NewKeyHandle(conn, key)
		if !k.Exists() {
			sp.log.Warn("key not available", zap.Stringer("key", key))
		} else {
			sp.log.Info("key resolved",
				zap.Stringer("key", key),
				zap.String("description", key.Description()),
				zap.Stringer("type", k.Info().Type),
				zap.Bool("decodable", k.Info().Type.Decodable()))
		}
		sources = append(sources, k)
	}
	return sources
}

func (sp *SysPower) newSampler() (*sampler.Sampler, error) {
	sink, err := sampler.NewSink(sp.config.Format, sp.out)
	if err != nil {
		return nil, err
	}
	return sampler.New(sp.config.Interval, sink, sp.keyHandles()...).WithLogger(sp.log), nil
}

// Once samples every key a single time.
func (sp *SysPower) Once() error {
	sp.mutex.Lock()
	defer sp.mutex.Unlock()

	s, err := sp.newSampler()
	if err != nil {
		return err
	}
	defer sp.shutDownTransport()

	return s.Once()
}

// StartMonitoring starts sampling and, if configured, watching the
// config file.
func (sp *SysPower) StartMonitoring() error {
	sp.mutex.Lock()
	defer sp.mutex.Unlock()

	if err := sp.start(); err != nil {
		return err
	}

	if sp.config.ConfigCheckInterval > 0 && sp.watcherTicker == nil {
		sp.watcherTicker = time.NewTicker(sp.config.ConfigCheckInterval)
		go func(ticker *time.Ticker) {
			for range ticker.C {
				sp.checkConfig()
			}
		}(sp.watcherTicker)
	}
	return nil
}

func (sp *SysPower) start() error {
	if sp.running {
		return nil
	}

	s, err := sp.newSampler()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sp.cancel = cancel
	sp.done = make(chan struct{})
	sp.running = true

	go func(done chan struct{}) {
		defer close(done)
		_ = s.Run(ctx)
	}(sp.done)

	return nil
}

// StopMonitoring stops sampling and config watching and releases the
// transport.
func (sp *SysPower) StopMonitoring() {
	sp.mutex.Lock()
	defer sp.mutex.Unlock()

	if sp.watcherTicker != nil {
		sp.watcherTicker.Stop()
		sp.watcherTicker = nil
	}
	sp.stop()
}

func (sp *SysPower) stop() {
	if !sp.running {
		return
	}
	sp.cancel()
	<-sp.done
	sp.running = false
	sp.shutDownTransport()
}

func (sp *SysPower) shutDownTransport() {
	if sp.transport != nil {
		sp.transport.ShutDown()
		sp.transport = nil
	}
}

// checkConfig is periodically called to hot-reload the configuration,
// the sampler restarts when the file changed.
func (sp *SysPower) checkConfig() {
	sp.mutex.Lock()
	defer sp.mutex.Unlock()

	path := filepath.Join(sp.configPath, configFileName)
	configStat, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			sp.log.Error("unable to stat config file", zap.Error(err))
		}
		return
	}
	if sp.configStat != nil &&
		configStat.Size() == sp.configStat.Size() && configStat.ModTime() == sp.configStat.ModTime() {
		return
	}

	config, err := sp.loadConfig()
	if err != nil {
		// keep sampling with the previous config
		sp.configStat = configStat
		sp.log.Error("config not reloaded", zap.Error(err))
		return
	}

	sp.stop()
	sp.config = config
	if err = sp.start(); err != nil {
		sp.log.Error("unable to restart sampler", zap.Error(err))
		return
	}
	sp.log.Info("config updated", zap.String("path", path))
}
