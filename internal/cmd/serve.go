package cmd

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/config"
	"github.com/zcc135820/reqpipe/internal/fixture"
	"github.com/zcc135820/reqpipe/internal/logging"
	"github.com/zcc135820/reqpipe/internal/watcher"
)

// StartFixture serves the fixture backend until ctx is cancelled. When configPath is set the
// file is watched and reloadable settings are applied without a restart.
func StartFixture(ctx context.Context, cfg *config.Config, configPath string) error {
	srv, err := fixture.New(cfg)
	if err != nil {
		return err
	}

	if strings.TrimSpace(configPath) != "" {
		w, errWatch := watcher.NewWatcher(configPath, func(_, updated *config.Config) {
			if errLog := logging.ConfigureLogOutput(updated); errLog != nil {
				log.WithError(errLog).Error("failed to apply logging config")
			}
			if errApply := srv.ApplyConfig(updated); errApply != nil {
				log.WithError(errApply).Error("failed to apply fixture config")
			}
		})
		if errWatch != nil {
			return errWatch
		}
		w.SetConfig(cfg)
		if errStart := w.Start(ctx); errStart != nil {
			_ = w.Stop()
			return errStart
		}
		defer func() {
			if errStop := w.Stop(); errStop != nil {
				log.WithError(errStop).Debug("stop config watcher")
			}
		}()
	}

	addr := net.JoinHostPort(cfg.Fixture.Host, strconv.Itoa(cfg.Fixture.Port))
	fmt.Printf("fixture server: http://%s%s (table total %d)\n", displayHost(addr), fixture.RoutePrefix, srv.Total())
	return srv.Run(ctx, addr)
}

func displayHost(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" || host == "0.0.0.0" || host == "::" {
		return net.JoinHostPort("localhost", port)
	}
	return addr
}
