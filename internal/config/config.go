// Package config loads the shelflife configuration file.
//
// The file is YAML. Keys are checked against the Go structure (typos are
// rejected with a line number), then unified with an embedded CUE schema
// that supplies defaults and value constraints.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/roach88/shelflife/internal/scan"
)

//go:embed schema.cue
var schemaCUE string

// ScheduleParser parses watch schedules: five or six cron fields, or a
// descriptor such as "@every 1h" or "@daily".
var ScheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config is the resolved configuration.
type Config struct {
	Storage Storage
	Log     Log
	Scan    Scan
	HTTP    HTTP
	Watch   Watch
}

// Storage selects the persistence driver (one of store.Drivers).
type Storage struct {
	Driver string
	Path   string
}

// Log configures logging. File empty means stderr.
type Log struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Scan configures the camera and detection loop.
type Scan struct {
	CameraDir    string
	FPS          int
	PollInterval time.Duration
	IdleTimeout  time.Duration
	Symbologies  []scan.Symbology
}

// HTTP configures the API server.
type HTTP struct {
	Addr string
}

// Watch configures the scheduled summary.
type Watch struct {
	Schedule string
}

// file mirrors the on-disk layout.
type file struct {
	Storage struct {
		Driver string `json:"driver" yaml:"driver"`
		Path   string `json:"path" yaml:"path"`
	} `json:"storage" yaml:"storage"`
	Log struct {
		Level      string `json:"level" yaml:"level"`
		Format     string `json:"format" yaml:"format"`
		File       string `json:"file" yaml:"file"`
		MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
		MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	} `json:"log" yaml:"log"`
	Scan struct {
		CameraDir    string   `json:"camera_dir" yaml:"camera_dir"`
		FPS          int      `json:"fps" yaml:"fps"`
		PollInterval string   `json:"poll_interval" yaml:"poll_interval"`
		IdleTimeout  string   `json:"idle_timeout" yaml:"idle_timeout"`
		Symbologies  []string `json:"symbologies" yaml:"symbologies"`
	} `json:"scan" yaml:"scan"`
	HTTP struct {
		Addr string `json:"addr" yaml:"addr"`
	} `json:"http" yaml:"http"`
	Watch struct {
		Schedule string `json:"schedule" yaml:"schedule"`
	} `json:"watch" yaml:"watch"`
}

// Load reads the file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Parse resolves YAML data against the schema.
func Parse(data []byte) (*Config, error) {
	if err := checkKnownFields(data); err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}

	var f file
	if err := v.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return resolve(&f)
}

// checkKnownFields rejects keys the structure does not define.
func checkKnownFields(data []byte) error {
	var f file
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func resolve(f *file) (*Config, error) {
	poll, err := time.ParseDuration(f.Scan.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("scan.poll_interval: %w", err)
	}
	if poll <= 0 {
		return nil, fmt.Errorf("scan.poll_interval: must be positive")
	}
	idle, err := time.ParseDuration(f.Scan.IdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("scan.idle_timeout: %w", err)
	}

	syms := make([]scan.Symbology, 0, len(f.Scan.Symbologies))
	for _, s := range f.Scan.Symbologies {
		sym, err := scan.ParseSymbology(s)
		if err != nil {
			return nil, fmt.Errorf("scan.symbologies: %w", err)
		}
		syms = append(syms, sym)
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("scan.symbologies: at least one symbology is required")
	}

	if _, err := ScheduleParser.Parse(f.Watch.Schedule); err != nil {
		return nil, fmt.Errorf("watch.schedule: %w", err)
	}

	return &Config{
		Storage: Storage{Driver: f.Storage.Driver, Path: f.Storage.Path},
		Log: Log{
			Level:      f.Log.Level,
			Format:     f.Log.Format,
			File:       f.Log.File,
			MaxSizeMB:  f.Log.MaxSizeMB,
			MaxBackups: f.Log.MaxBackups,
		},
		Scan: Scan{
			CameraDir:    f.Scan.CameraDir,
			FPS:          f.Scan.FPS,
			PollInterval: poll,
			IdleTimeout:  idle,
			Symbologies:  syms,
		},
		HTTP:  HTTP{Addr: f.HTTP.Addr},
		Watch: Watch{Schedule: f.Watch.Schedule},
	}, nil
}
