package config

import "github.com/minilab/mlc/pkg/cli"

type Feature int

const (
	FeatFold Feature = iota
	FeatPruneBranches
	FeatCount
)

type Warning int

const (
	WarnUninit Warning = iota
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

// Emit names a pipeline stage whose artifact can be serialized on its own.
type Emit string

const (
	EmitNone    Emit = ""
	EmitTokens  Emit = "tokens"
	EmitAST     Emit = "ast"
	EmitIR      Emit = "ir"
	EmitASM     Emit = "asm"
	EmitMachine Emit = "machine"
)

// Config carries per-compilation settings: which optimizations run, which
// warnings are reported, and which stage traces are printed.
type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning

	TraceIR  bool
	TraceASM bool
	TraceVM  bool
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
	}

	features := map[Feature]Info{
		FeatFold:          {"fold", true, "Evaluate constant subexpressions at compile time."},
		FeatPruneBranches: {"prune-branches", true, "Drop the dead arm of an if/else whose condition folds to a constant."},
	}

	warnings := map[Warning]Info{
		WarnUninit: {"uninit", true, "Warn when a variable may be read before it is assigned."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// SetOptimize flips every optimization feature at once (--no-opt).
func (c *Config) SetOptimize(enabled bool) {
	for i := Feature(0); i < FeatCount; i++ {
		c.SetFeature(i, enabled)
	}
}

// SetupFlagGroups registers -F<feature>/-Fno-<feature> and -W<warning>/
// -Wno-<warning> flag groups on the given flag set. The returned entries are
// indexed by Feature and Warning value; the caller applies them after Parse.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) (warningFlags, featureFlags []cli.FlagGroupEntry) {
	featureFlags = make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureFlags[i] = cli.FlagGroupEntry{
			Name:     info.Name,
			Prefix:   "F",
			Usage:    info.Description,
			Enabled:  new(bool),
			Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Features", "Toggle optimizer features.", "feature", featureFlags)

	warningFlags = make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningFlags[i] = cli.FlagGroupEntry{
			Name:     info.Name,
			Prefix:   "W",
			Usage:    info.Description,
			Enabled:  new(bool),
			Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Warnings", "Toggle diagnostic warnings.", "warning", warningFlags)

	return warningFlags, featureFlags
}

// ApplyFlagGroups copies parsed -F/-W toggles into the config. Explicit
// disables win over enables so "-Wuninit -Wno-uninit" ends up off.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range featureFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
	for i, entry := range warningFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
}
