package cmd

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/config"
	"github.com/zcc135820/reqpipe/internal/logging"
	"github.com/zcc135820/reqpipe/internal/tui"
	"github.com/zcc135820/reqpipe/sdk/api"
)

// TableOptions selects what DoTable fetches.
type TableOptions struct {
	Page     int
	PageSize int
	// All fetches every page with Concurrency parallel requests.
	All         bool
	Concurrency int
	// Keyword and Status switch to the search endpoint.
	Keyword string
	Status  string
}

// DoTable prints table rows as JSON.
func DoTable(ctx context.Context, cfg *config.Config, opts TableOptions, out io.Writer) error {
	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	q := api.PageQuery{Page: opts.Page, PageSize: opts.PageSize}
	switch {
	case opts.All:
		rows, errAll := s.api.Table.FetchAll(ctx, opts.PageSize, opts.Concurrency)
		if errAll != nil {
			return fmt.Errorf("fetch table: %s", describe(errAll))
		}
		return printJSON(out, rows)
	case opts.Keyword != "" || opts.Status != "":
		page, errSearch := s.api.Table.Search(ctx, api.TableSearch{PageQuery: q, Keyword: opts.Keyword, Status: opts.Status})
		if errSearch != nil {
			return fmt.Errorf("search table: %s", describe(errSearch))
		}
		return printJSON(out, page)
	default:
		page, errList := s.api.Table.List(ctx, q)
		if errList != nil {
			return fmt.Errorf("list table: %s", describe(errList))
		}
		return printJSON(out, page)
	}
}

// DoTableTUI opens the interactive table browser. Log lines at info level and above are
// shown in the browser's status line; console output is suppressed while it runs.
func DoTableTUI(ctx context.Context, cfg *config.Config, pageSize int) error {
	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	hook := tui.NewLogHook(64)
	hook.SetFormatter(&logging.LogFormatter{})
	logger := log.StandardLogger()
	prevHooks := make(log.LevelHooks)
	for level, hooks := range logger.Hooks {
		prevHooks[level] = append([]log.Hook(nil), hooks...)
	}
	logger.AddHook(hook)
	prevOut := logger.Out
	if !cfg.LoggingToFile {
		logger.SetOutput(io.Discard)
	}
	defer func() {
		logger.ReplaceHooks(prevHooks)
		logger.SetOutput(prevOut)
	}()

	return tui.Run(ctx, s.api.Table, pageSize, hook, nil)
}
