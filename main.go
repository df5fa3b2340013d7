package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/oblq/syspower/modules/sampler"
	"github.com/oblq/syspower/modules/smc"
)

// can be interpolated with -ldflags at build time with an absolute path.
var Path = "./"

type options struct {
	Config    string        `short:"c" long:"config" description:"directory containing syspower.yaml"`
	Keys      []string      `short:"k" long:"key" description:"controller key to sample, repeatable (eg. PSTR)"`
	Interval  time.Duration `short:"i" long:"interval" description:"time between samples"`
	Transport string        `short:"t" long:"transport" description:"controller transport" choice:"iokit" choice:"usb" choice:"simulator"`
	Format    string        `short:"f" long:"format" description:"output format" choice:"text" choice:"cbor"`
	Once      bool          `long:"once" description:"sample once and exit"`
	ListKeys  bool          `long:"list-keys" description:"print the known keys and exit"`
	Verbose   bool          `short:"v" long:"verbose" description:"debug logging"`
}

// apply overrides config values with the ones set on the command line.
func (o *options) apply(config *Config) {
	if len(o.Keys) > 0 {
		config.Keys = o.Keys
	}
	if o.Interval > 0 {
		config.Interval = o.Interval
	}
	if o.Transport != "" {
		config.Transport = o.Transport
	}
	if o.Format != "" {
		config.Format = sampler.Format(o.Format)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.ListKeys {
		for _, k := range smc.CatalogKeys() {
			fmt.Printf("%s\t%s\n", k, k.Description())
		}
		return
	}

	log, err := newLogger(opts.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	smc.SetLogger(log.Named("smc"))

	configPath := Path
	if opts.Config != "" {
		configPath = opts.Config
	}

	sp, err := New(configPath, opts.apply, os.Stdout, log)
	if err != nil {
		log.Fatal("unable to load config", zap.Error(err))
	}

	if opts.Once {
		if err := sp.Once(); err != nil {
			log.Fatal("sampling failed", zap.Error(err))
		}
		return
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	if err := sp.StartMonitoring(); err != nil {
		log.Fatal("unable to start monitoring", zap.Error(err))
	}

	stop := <-stopCh
	log.Info("exiting", zap.Stringer("signal", stop))

	sp.StopMonitoring()
}
