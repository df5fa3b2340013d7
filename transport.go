package main

import (
	"path/filepath"

	"github.com/google/gousb"

	"github.com/oblq/syspower/modules/iokit"
	"github.com/oblq/syspower/modules/simulator"
	"github.com/oblq/syspower/modules/smc"
	"github.com/oblq/syspower/modules/usbsmc"
)

const (
	transportIOKit     = "iokit"
	transportUSB       = "usb"
	transportSimulator = "simulator"
)

// transport is a controller connection the daemon owns.
type transport interface {
	smc.Conn
	ShutDown()
}

type simulatorTransport struct {
	*simulator.Controller
}

func (simulatorTransport) ShutDown() {}

func openTransport(config *Config, configPath string) (transport, error) {
	switch config.Transport {
	case transportUSB:
		c, err := usbsmc.Open(gousb.ID(config.USB.VID), gousb.ID(config.USB.PID))
		if err != nil {
			return nil, err
		}
		return c, nil

	case transportSimulator:
		path := config.Simulator
		if !filepath.IsAbs(path) {
			path = filepath.Join(configPath, path)
		}
		c, err := simulator.Load(path)
		if err != nil {
			return nil, err
		}
		return simulatorTransport{c}, nil

	default:
		c, err := iokit.Open(iokit.ServiceName)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
