package cli

import (
	"github.com/polagate/dotledger/internal/config"
	"github.com/polagate/dotledger/internal/session"
	"github.com/polagate/dotledger/internal/transport"
)

// sessionFactory builds the session manager for device commands. Tests
// swap it to inject a fake transport factory.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var sessionFactory = defaultSessionManager

// defaultSessionManager wires the manager from the global configuration:
// a USB HID transport factory, and a state snapshot under the dotledger
// home so the session surface survives across invocations.
func defaultSessionManager() *session.Manager {
	var store session.Store
	if cfg.Device.PersistState {
		store = session.NewFileStore(config.StatePath(cfg.Home))
	}

	return session.NewManager(&session.Config{
		Factory:            transport.NewHIDFactory(logger),
		Store:              store,
		Logger:             logger,
		ProbeRatePerSecond: cfg.Device.ProbeRatePerSecond,
		ProbeBurst:         cfg.Device.ProbeBurst,
	})
}
