package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/mr-karan/logjam/internal/capture"
	"github.com/mr-karan/logjam/pkg/logjam"
	"github.com/zerodha/logf"
)

// fieldConfig is a field as written in the config file. Either type or
// width/signed may be given. Code defaults to the next sequential code.
type fieldConfig struct {
	Name    string  `koanf:"name"`
	Type    string  `koanf:"type"`
	Width   int     `koanf:"width"`
	Signed  bool    `koanf:"signed"`
	Scale   float64 `koanf:"scale"`
	Code    *int    `koanf:"code"`
	Units   string  `koanf:"units"`
	Title   string  `koanf:"title"`
	Comment string  `koanf:"comment"`
}

type eventConfig struct {
	Name   string        `koanf:"name"`
	Code   *int          `koanf:"code"`
	Fields []fieldConfig `koanf:"fields"`
}

// initLogger initializes logger instance.
func initLogger(ko *koanf.Koanf) logf.Logger {
	opts := logf.Opts{EnableCaller: true}
	if ko.String("app.log") == "debug" {
		opts.Level = logf.DebugLevel
		opts.EnableColor = true
	}
	return logf.New(opts)
}

// initConfig loads config to `ko` object and returns the positional args.
func initConfig() (*koanf.Koanf, []string, error) {
	var (
		ko = koanf.New(".")
		f  = flag.NewFlagSet("logjam", flag.ContinueOnError)
	)

	// Configure Flags.
	f.Usage = func() {
		fmt.Println("usage: logjam [--config path] <layout|serve|dump [files...]|version>")
		fmt.Println(f.FlagUsages())
		os.Exit(0)
	}

	// Register `--config` flag.
	cfgPath := f.String("config", "config.sample.toml", "Path to a config file to load.")

	// Parse and Load Flags.
	err := f.Parse(os.Args[1:])
	if err != nil {
		return nil, nil, err
	}

	err = ko.Load(file.Provider(*cfgPath), toml.Parser())
	if err != nil {
		return nil, nil, err
	}
	err = ko.Load(env.Provider("LOGJAM_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "LOGJAM_")), "__", ".", -1)
	}), nil)
	if err != nil {
		return nil, nil, err
	}
	return ko, f.Args(), nil
}

// toField resolves a configured field, assigning code when none is set.
func (fc fieldConfig) toField(code int) (logjam.Field, error) {
	fld := logjam.Field{
		Name:    fc.Name,
		Width:   fc.Width,
		Signed:  fc.Signed,
		Scale:   fc.Scale,
		Code:    code,
		Units:   fc.Units,
		Title:   fc.Title,
		Comment: fc.Comment,
	}
	if fc.Code != nil {
		fld.Code = *fc.Code
	}
	if fc.Type != "" {
		w, signed, err := logjam.ParseType(fc.Type)
		if err != nil {
			return logjam.Field{}, fmt.Errorf("field %q: %w", fc.Name, err)
		}
		fld.Width, fld.Signed = w, signed
	}
	// Titles may contain spaces; the identifier never does.
	if strings.Contains(fld.Name, " ") {
		if fld.Title == "" {
			fld.Title = fld.Name
		}
		fld.Name = logjam.Identifier(fld.Name)
	}
	return fld, nil
}

// initCatalog builds the record catalog from the `record` config section.
func initCatalog(ko *koanf.Koanf, lo logf.Logger) (*logjam.Catalog, error) {
	var cfgs []fieldConfig
	if err := ko.Unmarshal("record.fields", &cfgs); err != nil {
		return nil, fmt.Errorf("error reading record fields: %w", err)
	}

	base := ko.Int("record.base")
	fields := make([]logjam.Field, 0, len(cfgs))
	for i, fc := range cfgs {
		fld, err := fc.toField(base + i)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fld)
	}

	name := ko.String("record.name")
	if name == "" {
		return nil, fmt.Errorf("record.name is not set")
	}
	return logjam.Build(name, fields, logjam.WithLogger(lo))
}

// initEvents builds the event set from the `record.events` config section.
func initEvents(ko *koanf.Koanf, lo logf.Logger) (*logjam.EventSet, error) {
	var cfgs []eventConfig
	if err := ko.Unmarshal("record.events", &cfgs); err != nil {
		return nil, fmt.Errorf("error reading record events: %w", err)
	}

	base := logjam.DefaultDeviceBase
	if ko.Exists("record.event_base") {
		base = ko.Int("record.event_base")
	}

	events := make([]logjam.Event, 0, len(cfgs))
	for i, ec := range cfgs {
		ev := logjam.Event{Name: ec.Name, Code: base + i}
		if ec.Code != nil {
			ev.Code = *ec.Code
		}
		for j, fc := range ec.Fields {
			fld, err := fc.toField(j)
			if err != nil {
				return nil, fmt.Errorf("event %q: %w", ec.Name, err)
			}
			ev.Fields = append(ev.Fields, fld)
		}
		events = append(events, ev)
	}
	return logjam.BuildEvents(events, logjam.WithEnumBase(base), logjam.WithLogger(lo))
}

// initCapture opens the capture log when `capture.dir` is set.
func initCapture(ko *koanf.Koanf, lo logf.Logger, cat *logjam.Catalog) (*capture.Log, error) {
	dir := ko.String("capture.dir")
	if dir == "" {
		return nil, nil
	}

	manifest, err := cat.Manifest()
	if err != nil {
		return nil, err
	}
	return capture.Open(capture.Opts{
		Dir:         dir,
		AlwaysFSync: ko.Bool("capture.always_fsync"),
		MaxFileSize: ko.Int64("capture.max_file_size"),
		Logger:      &lo,
	}, manifest)
}

func durationOr(ko *koanf.Koanf, key string, def time.Duration) time.Duration {
	if !ko.Exists(key) {
		return def
	}
	return ko.Duration(key)
}
