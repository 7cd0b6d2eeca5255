// Command capreg assembles capability sets from the command line and serves
// the audit endpoints of the standard trust policy.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/capreg"
	"github.com/GoCodeAlone/capreg/audit"
	"github.com/GoCodeAlone/capreg/catalog"
	"github.com/GoCodeAlone/capreg/feeders"
)

var (
	errUsage               = errors.New("usage: capreg <assemble|serve|config> [flags]")
	errUnknownFormat       = errors.New("unknown output format")
	errUnknownCommand      = errors.New("unknown command")
	errRecheckWithoutWatch = errors.New("--recheck requires --watch")
)

// serveSection is the config file key holding serveConfig.
const serveSection = "serve"

// serveConfig is the optional serve section of the config file. Flags
// override it.
type serveConfig struct {
	Addr    string `yaml:"addr" toml:"addr" json:"addr" default:":8080" desc:"Audit server listen address"`
	Watch   string `yaml:"watch" toml:"watch" json:"watch" desc:"Manifest file re-assembled on change"`
	Recheck string `yaml:"recheck" toml:"recheck" json:"recheck" desc:"Cron schedule re-assembling the watched manifest, e.g. \"@every 5m\""`
}

// fileFeeder is a config file feeder that can also decode one section.
type fileFeeder interface {
	capreg.Feeder
	FeedKey(key string, target any) error
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "capreg:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "assemble":
		return runAssemble(args[1:], stdout, stderr)
	case "serve":
		return runServe(args[1:], stderr)
	case "config":
		return runConfig(args[1:], stdout, stderr)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, args[0])
	}
}

type commonFlags struct {
	configPath string
	debug      bool
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configPath, "config", "c", "", "runtime config file (.yaml, .yml, .toml or .json)")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
}

// environment is what every subcommand needs once flags are parsed.
type environment struct {
	config   *capreg.RuntimeConfig
	file     fileFeeder // nil without --config
	logger   *slog.Logger
	registry *capreg.ModuleRegistry
}

// setup loads the runtime config and builds the logger and registry.
func (c *commonFlags) setup(stderr io.Writer) (*environment, error) {
	file, err := configFile(c.configPath)
	if err != nil {
		return nil, err
	}
	var sources []capreg.Feeder
	if file != nil {
		sources = append(sources, file)
	}
	sources = append(sources, feeders.NewEnvFeeder())
	cfg, err := capreg.LoadRuntimeConfig(sources...)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if c.debug || cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	reg, err := catalog.NewRegistry(logger)
	if err != nil {
		return nil, err
	}
	return &environment{config: cfg, file: file, logger: logger, registry: reg}, nil
}

// configFile picks the feeder for path by its extension.
func configFile(path string) (fileFeeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "":
		return nil, nil
	case ".yaml", ".yml":
		return feeders.NewYamlFeeder(path), nil
	case ".toml":
		return feeders.NewTomlFeeder(path), nil
	case ".json":
		return feeders.NewJSONFeeder(path), nil
	default:
		return nil, fmt.Errorf("%w: unsupported config file %s", capreg.ErrConfigFeederError, path)
	}
}

func runAssemble(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("assemble", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	mode := fs.StringP("mode", "m", "task", "trust mode: kernel or task")
	manifestPath := fs.String("manifest", "", "task manifest (JSON or YAML)")
	propsPath := fs.String("properties", "", "task properties (JSON or YAML)")
	format := fs.StringP("output", "o", "yaml", "output format: yaml or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := common.setup(stderr)
	if err != nil {
		return err
	}

	rc, err := registrationContext(*mode, *manifestPath, *propsPath)
	if err != nil {
		return err
	}

	set, err := env.registry.Assemble(capreg.NewRuntimeContext(env.config, env.logger), rc)
	if err != nil {
		return err
	}
	return writeOutput(stdout, *format, audit.View(rc, set))
}

func registrationContext(mode, manifestPath, propsPath string) (capreg.RegistrationContext, error) {
	trust, err := capreg.ParseTrustMode(mode)
	if err != nil {
		return nil, err
	}
	if trust == capreg.KernelMode {
		if manifestPath != "" || propsPath != "" {
			return nil, fmt.Errorf("%w: kernel mode takes no manifest or properties", capreg.ErrInvalidContext)
		}
		return capreg.KernelContext{}, nil
	}

	manifest := capreg.Manifest{}
	if manifestPath != "" {
		if manifest, err = capreg.LoadManifest(manifestPath); err != nil {
			return nil, err
		}
	}
	props := capreg.TaskProperties{}
	if propsPath != "" {
		data, err := os.ReadFile(propsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read properties %s: %w", propsPath, err)
		}
		if err := yaml.Unmarshal(data, &props); err != nil {
			return nil, fmt.Errorf("failed to decode properties %s: %w", propsPath, err)
		}
	}
	return capreg.NewTaskContext(props, manifest), nil
}

// runConfig prints every documented config setting, in the layout of a
// config file.
func runConfig(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.StringP("output", "o", "yaml", "output format: yaml or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	runtime, err := capreg.ConfigDescriptions(&capreg.RuntimeConfig{})
	if err != nil {
		return err
	}
	serve, err := capreg.ConfigDescriptions(&serveConfig{})
	if err != nil {
		return err
	}

	doc := make(map[string]any, len(runtime)+1)
	for k, v := range runtime {
		doc[k] = v
	}
	doc[serveSection] = serve
	return writeOutput(stdout, *format, doc)
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("%w: %s", errUnknownFormat, format)
	}
}

// auditServer is a configured but not yet listening serve command.
type auditServer struct {
	env    *environment
	config serveConfig
	http   *http.Server
}

func runServe(args []string, stderr io.Writer) error {
	s, err := newAuditServer(args, stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.run(ctx)
}

// newAuditServer parses serve flags over the config file's serve section and
// wires the audit router. Nothing listens until run.
func newAuditServer(args []string, stderr io.Writer) (*auditServer, error) {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	addr := fs.String("addr", "", `listen address (default ":8080")`)
	watch := fs.String("watch", "", "manifest file to re-assemble on change")
	recheck := fs.String("recheck", "", `cron schedule re-assembling the watched manifest, e.g. "@every 5m"`)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	env, err := common.setup(stderr)
	if err != nil {
		return nil, err
	}

	var sc serveConfig
	if env.file != nil {
		if err := env.file.FeedKey(serveSection, &sc); err != nil {
			return nil, err
		}
	}
	if fs.Changed("addr") {
		sc.Addr = *addr
	}
	if fs.Changed("watch") {
		sc.Watch = *watch
	}
	if fs.Changed("recheck") {
		sc.Recheck = *recheck
	}
	if err := capreg.ProcessConfigDefaults(&sc); err != nil {
		return nil, err
	}
	if sc.Recheck != "" {
		if sc.Watch == "" {
			return nil, errRecheckWithoutWatch
		}
		if _, err := audit.ParseSchedule(sc.Recheck); err != nil {
			return nil, err
		}
	}

	return &auditServer{
		env:    env,
		config: sc,
		http: &http.Server{
			Addr:              sc.Addr,
			Handler:           audit.NewServer(env.registry, env.config, env.logger).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (s *auditServer) run(ctx context.Context) error {
	logger := s.env.logger
	if s.config.Watch != "" {
		w := audit.NewManifestWatcher(s.env.registry, s.env.config, logger, s.config.Watch, nil, func(set *capreg.AssembledModuleSet, err error) {
			if err == nil {
				logger.Info("Manifest assembly", "path", s.config.Watch, "kinds", set.Kinds())
			}
		})
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("Manifest watcher stopped", "error", err)
			}
		}()
		if s.config.Recheck != "" {
			go func() {
				if err := w.RunScheduled(ctx, s.config.Recheck); err != nil {
					logger.Error("Manifest recheck stopped", "error", err)
				}
			}()
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving audit endpoints", "addr", s.config.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
