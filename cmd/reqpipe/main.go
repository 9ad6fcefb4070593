// Package main provides the reqpipe command line tool. It serves the fixture backend and
// calls envelope APIs through the request pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/buildinfo"
	"github.com/zcc135820/reqpipe/internal/cmd"
	"github.com/zcc135820/reqpipe/internal/config"
	"github.com/zcc135820/reqpipe/internal/logging"
	"github.com/zcc135820/reqpipe/internal/misc"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = ""
)

func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	var (
		configPath  string
		showVersion bool
		serve       bool
		table       bool
		browse      bool
		page        int
		pageSize    int
		all         bool
		concurrency int
		keyword     string
		status      string
		login       bool
		username    string
		password    string
		whoami      bool
		logout      bool
		upload      string
		download    string
		output      string
	)

	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configure File Path")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&serve, "serve", false, "Run the fixture backend")
	flag.BoolVar(&table, "table", false, "List table rows")
	flag.BoolVar(&browse, "tui", false, "Browse table rows interactively")
	flag.IntVar(&page, "page", 1, "Table page number")
	flag.IntVar(&pageSize, "page-size", 10, "Table page size")
	flag.BoolVar(&all, "all", false, "With -table, fetch every page")
	flag.IntVar(&concurrency, "concurrency", 4, "With -all, parallel page requests")
	flag.StringVar(&keyword, "keyword", "", "With -table, search by keyword")
	flag.StringVar(&status, "status", "", "With -table, filter by status (active, banned)")
	flag.BoolVar(&login, "login", false, "Log in and store the issued token")
	flag.StringVar(&username, "username", "", "Login username (prompted when empty)")
	flag.StringVar(&password, "password", "", "")
	flag.BoolVar(&whoami, "whoami", false, "Print the current user profile")
	flag.BoolVar(&logout, "logout", false, "Revoke and clear the stored token")
	flag.StringVar(&upload, "upload", "", "Upload the given file")
	flag.StringVar(&download, "download", "", "Download the given path, e.g. /files/report.csv")
	flag.StringVar(&output, "output", "", "With -download, override the saved file name")

	flag.CommandLine.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(out, "Usage of %s\n", os.Args[0])
		flag.CommandLine.VisitAll(func(f *flag.Flag) {
			if f.Name == "password" {
				return
			}
			s := fmt.Sprintf("  -%s", f.Name)
			name, usage := flag.UnquoteUsage(f)
			if name != "" {
				s += " " + name
			}
			s += "\n    " + usage
			if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
				s += fmt.Sprintf(" (default %s)", f.DefValue)
			}
			_, _ = fmt.Fprintln(out, s)
		})
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("reqpipe Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		os.Exit(1)
	}
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	if configPath == "" {
		candidate := filepath.Join(wd, "config.yaml")
		created, errEnsure := misc.EnsureConfig(candidate, filepath.Join(wd, "config.example.yaml"))
		if errEnsure != nil {
			log.WithError(errEnsure).Warn("failed to create config from template")
		} else if created {
			log.Infof("created %s from config.example.yaml", candidate)
		}
		if fileExists(candidate) {
			configPath = candidate
		}
	}
	cfg, err := config.LoadConfigOptional(configPath, true)
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}
	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := os.Stdout
	switch {
	case serve:
		err = cmd.StartFixture(ctx, cfg, configPath)
	case login:
		err = cmd.DoLogin(ctx, cfg, &cmd.LoginOptions{Username: username, Password: password}, out)
	case logout:
		err = cmd.DoLogout(ctx, cfg, out)
	case whoami:
		err = cmd.DoWhoAmI(ctx, cfg, out)
	case strings.TrimSpace(upload) != "":
		err = cmd.DoUpload(ctx, cfg, upload, out)
	case strings.TrimSpace(download) != "":
		err = cmd.DoDownload(ctx, cfg, download, output, out)
	case browse:
		err = cmd.DoTableTUI(ctx, cfg, pageSize)
	case table:
		err = cmd.DoTable(ctx, cfg, cmd.TableOptions{
			Page:        page,
			PageSize:    pageSize,
			All:         all,
			Concurrency: concurrency,
			Keyword:     keyword,
			Status:      status,
		}, out)
	default:
		flag.CommandLine.Usage()
		return
	}
	if err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
