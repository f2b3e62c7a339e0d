package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/metcalfc/flowread/internal/condition"
	"github.com/metcalfc/flowread/internal/logs"
	"github.com/metcalfc/flowread/internal/presets"
	"github.com/metcalfc/flowread/internal/reader"
	"github.com/metcalfc/flowread/internal/token"
	"golang.org/x/term"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	errNoInput = errors.New("no input provided")
	errNoText  = errors.New("no text to read")
)

// specFlag overrides one field of the reading configuration.
type specFlag struct {
	name  string
	usage string
	path  []string
	value func(string) (any, error)
}

func numeric(s string) (any, error) {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return s, nil
}

func speed(unit condition.SpeedUnit) func(string) (any, error) {
	return func(s string) (any, error) {
		if _, err := numeric(s); err != nil {
			return nil, err
		}
		return map[string]any{"unit": string(unit), "value": s}, nil
	}
}

func oneOf(choices ...string) func(string) (any, error) {
	return func(s string) (any, error) {
		for _, c := range choices {
			if strings.EqualFold(s, c) {
				return c, nil
			}
		}
		return nil, fmt.Errorf("must be one of %s", strings.Join(choices, ", "))
	}
}

func unitValue(s string) (any, error) {
	u, ok := token.ParseUnit(s)
	if !ok {
		return nil, fmt.Errorf("unknown unit %q", s)
	}
	return string(u), nil
}

func boolValue(s string) (any, error) {
	if _, err := strconv.ParseBool(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Later entries win when several touch the same field.
var specFlags = []specFlag{
	{"w", "Speed in words per minute (converted to cps)", []string{"motion", "speed"}, speed(condition.WordsPerMinute)},
	{"cps", "Speed in characters per second", []string{"motion", "speed"}, speed(condition.CharsPerSecond)},
	{"pxps", "Scroll speed in pixels per second", []string{"motion", "speed"}, speed(condition.PixelsPerSecond)},
	{"unit", "Token unit: char, word, sentence or chunk", []string{"tokenization", "unit"}, unitValue},
	{"chunk", "Base tokens grouped into one token", []string{"tokenization", "chunkSize"}, numeric},
	{"mode", "Display mode: rsvp or paragraph", []string{"mode"}, oneOf("rsvp", "paragraph", "continuous")},
	{"progression", "Engine: step or continuous", []string{"motion", "progression"}, oneOf("step", "continuous")},
	{"direction", "Scroll direction: horizontal or vertical", []string{"motion", "direction"}, oneOf("horizontal", "vertical")},
	{"window", "Tokens shown at once", []string{"window", "size"}, numeric},
	{"step", "Tokens crossed per step", []string{"window", "step"}, numeric},
	{"font", "Font size in pixels", []string{"typography", "fontSizePx"}, numeric},
	{"autoplay", "Start playing immediately", []string{"motion", "autoplay"}, boolValue},
	{"rate", "Enable pointer rate control", []string{"motion", "rateControl", "enabled"}, boolValue},
}

// config holds the parsed command line.
type config struct {
	configPath  string
	exportPath  string
	preset      string
	savePreset  string
	dropPreset  string
	listPresets bool
	logPath     string
	logJSONPath string
	logLevel    string
	showVersion bool
	overrides   map[string]any
}

func registerFlags(fs *flag.FlagSet) *config {
	c := &config{overrides: make(map[string]any)}
	fs.StringVar(&c.configPath, "config", "", "Load reading configuration from a .json or .toml file")
	fs.StringVar(&c.exportPath, "export", "", "Write the effective configuration to a .json or .toml file and exit")
	fs.StringVar(&c.preset, "preset", "", "Load a saved configuration preset")
	fs.StringVar(&c.savePreset, "save-preset", "", "Save the effective configuration as a preset")
	fs.StringVar(&c.dropPreset, "delete-preset", "", "Delete a saved preset and exit")
	fs.BoolVar(&c.listPresets, "presets", false, "List saved presets and exit")
	fs.StringVar(&c.logPath, "log", "", "Write a text log to `file`")
	fs.StringVar(&c.logJSONPath, "log-json", "", "Write a JSON log to `file`")
	fs.StringVar(&c.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.BoolVar(&c.showVersion, "v", false, "Show version information")
	fs.BoolVar(&c.showVersion, "version", false, "Show version information")

	for _, f := range specFlags {
		fs.Func(f.name, f.usage, func(s string) error {
			v, err := f.value(s)
			if err != nil {
				return err
			}
			c.overrides[f.name] = v
			return nil
		})
	}
	return c
}

func (c *config) logger() (*logs.Logger, error) {
	return logs.New(logs.Options{TextPath: c.logPath, JSONPath: c.logJSONPath, Level: c.logLevel})
}

// resolve builds the effective configuration: base, replaced by a preset,
// replaced by a config file, then patched by individual flags.
func (c *config) resolve(store *presets.Store, base condition.Spec) (condition.Spec, error) {
	spec := base
	if c.preset != "" {
		if store == nil {
			return spec, errors.New("preset store unavailable")
		}
		var err error
		if spec, err = store.Get(c.preset); err != nil {
			return spec, err
		}
	}
	if c.configPath != "" {
		var err error
		if spec, err = condition.LoadFile(c.configPath); err != nil {
			return spec, err
		}
	}
	return c.apply(spec)
}

// apply routes flag overrides through the normalizer so they get the same
// coercion and clamping as imported documents.
func (c *config) apply(spec condition.Spec) (condition.Spec, error) {
	if len(c.overrides) == 0 {
		return spec, nil
	}
	data, err := condition.Export(spec)
	if err != nil {
		return spec, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return spec, err
	}
	for _, f := range specFlags {
		if v, ok := c.overrides[f.name]; ok {
			setPath(doc, f.path, v)
		}
	}
	return condition.Normalize(doc)
}

func setPath(doc map[string]any, path []string, v any) {
	for _, key := range path[:len(path)-1] {
		next, ok := doc[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			doc[key] = next
		}
		doc = next
	}
	doc[path[len(path)-1]] = v
}

// readInput loads the named file, or stdin when no file is given and stdin is not a terminal.
func readInput(args []string, stdin *os.File) (*reader.Document, error) {
	var doc *reader.Document
	if len(args) > 0 {
		var err error
		doc, err = reader.Load(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read file '%s': %w", args[0], err)
		}
	} else {
		if stdin == nil || term.IsTerminal(int(stdin.Fd())) {
			return nil, errNoInput
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("error reading stdin: %w", err)
		}
		if doc, err = reader.FromBytes(data); err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, errNoText
	}
	return doc, nil
}

// prepare handles everything both front ends do before opening a window.
// done reports that the command already finished (version, listing, export).
func prepare(c *config, args []string, name string, base condition.Spec) (spec condition.Spec, doc *reader.Document, log *logs.Logger, done bool, err error) {
	if c.showVersion {
		fmt.Printf("%s %s (commit: %s, built: %s)\n", name, version, commit, date)
		return spec, nil, nil, true, nil
	}

	store, storeErr := presets.NewStore()
	if c.dropPreset != "" {
		if storeErr != nil {
			return spec, nil, nil, true, storeErr
		}
		return spec, nil, nil, true, store.Delete(c.dropPreset)
	}
	if c.listPresets {
		if storeErr != nil {
			return spec, nil, nil, true, storeErr
		}
		for _, n := range store.Names() {
			fmt.Println(n)
		}
		return spec, nil, nil, true, nil
	}

	if spec, err = c.resolve(store, base); err != nil {
		return spec, nil, nil, true, err
	}
	if c.savePreset != "" {
		if storeErr != nil {
			return spec, nil, nil, true, storeErr
		}
		if err := store.Save(c.savePreset, spec); err != nil {
			return spec, nil, nil, true, fmt.Errorf("failed to save preset: %w", err)
		}
	}
	if c.exportPath != "" {
		return spec, nil, nil, true, condition.SaveFile(c.exportPath, spec)
	}

	if doc, err = readInput(args, os.Stdin); err != nil {
		return spec, nil, nil, true, err
	}
	if log, err = c.logger(); err != nil {
		return spec, nil, nil, true, err
	}
	log.Info("session start", "format", doc.Format, "chapters", len(doc.Chapters),
		"unit", spec.Tokenization.Unit, "progression", spec.Motion.Progression)
	return spec, doc, log, false, nil
}

// fatal prints err the way the commands always have and exits.
func fatal(name string, err error) {
	switch {
	case errors.Is(err, errNoInput):
		fmt.Fprintln(os.Stderr, "Error: No input provided. Provide a file or pipe text to stdin.")
		fmt.Fprintf(os.Stderr, "Try: %s -h\n", name)
	case errors.Is(err, errNoText):
		fmt.Fprintln(os.Stderr, "Error: No text to read.")
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

// nudgeSpeed moves the configured speed by delta cps, keeping it at least 1.
func nudgeSpeed(spec condition.Spec, delta float64) condition.Speed {
	if spec.Motion.Speed.Unit == condition.PixelsPerSecond {
		return condition.Speed{Unit: condition.PixelsPerSecond, Value: max(spec.Motion.Speed.Value+delta*spec.Typography.ApproxCharPx(), 1)}
	}
	return condition.Speed{Unit: condition.CharsPerSecond, Value: max(spec.CharsPerSecond()+delta, 1)}
}
