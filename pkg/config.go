package pkg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/mircot/meshbatch/assets"
)

const (
	ResourceDirEnv = "MESHBATCH_RESOURCE_DIR"
	ConfigScript   = "config.tengo"
)

type Config struct {
	Title                string
	ScreenWidth          int
	ScreenHeight         int
	TPS                  int
	CellSpacing          float64
	DirtyPrefixCount     int
	RevolutionsPerSecond float64
	Seed                 int64 // 0 seeds from the clock
	LogEvery             int   // 0 disables the periodic stats line
	AntiAlias            bool
}

func DefaultConfig() Config {
	return Config{
		Title:                "meshbatch",
		ScreenWidth:          800,
		ScreenHeight:         600,
		TPS:                  60,
		CellSpacing:          16,
		DirtyPrefixCount:     50,
		RevolutionsPerSecond: 1,
		LogEvery:             100,
		AntiAlias:            true,
	}
}

// ResourceDir returns the directory searched for config overrides.
func ResourceDir() string {
	if dir, ok := os.LookupEnv(ResourceDirEnv); ok && dir != "" {
		return dir
	}

	return "resources"
}

// LoadConfig runs dir/config.tengo if present, the embedded default script otherwise.
func LoadConfig(dir string) (Config, error) {
	path := filepath.Join(dir, ConfigScript)

	fData, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ParseConfig(assets.Config)
	}
	if err != nil {
		return Config{}, err
	}

	cfg, err := ParseConfig(fData)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// ParseConfig compiles and runs a tengo script and reads the known globals from it.
// Globals the script does not define keep their default values.
func ParseConfig(src []byte) (Config, error) {
	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return Config{}, err
	}

	if err := compiled.Run(); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()

	if compiled.IsDefined("title") {
		cfg.Title = compiled.Get("title").String()
	}
	if compiled.IsDefined("screen_width") {
		cfg.ScreenWidth = compiled.Get("screen_width").Int()
	}
	if compiled.IsDefined("screen_height") {
		cfg.ScreenHeight = compiled.Get("screen_height").Int()
	}
	if compiled.IsDefined("tps") {
		cfg.TPS = compiled.Get("tps").Int()
	}
	if compiled.IsDefined("cell_spacing") {
		cfg.CellSpacing = compiled.Get("cell_spacing").Float()
	}
	if compiled.IsDefined("dirty_prefix_count") {
		cfg.DirtyPrefixCount = compiled.Get("dirty_prefix_count").Int()
	}
	if compiled.IsDefined("revolutions_per_second") {
		cfg.RevolutionsPerSecond = compiled.Get("revolutions_per_second").Float()
	}
	if compiled.IsDefined("seed") {
		cfg.Seed = compiled.Get("seed").Int64()
	}
	if compiled.IsDefined("log_every") {
		cfg.LogEvery = compiled.Get("log_every").Int()
	}
	if compiled.IsDefined("anti_alias") {
		cfg.AntiAlias = compiled.Get("anti_alias").Bool()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		return fmt.Errorf("%dx%d is not a valid screen size", c.ScreenWidth, c.ScreenHeight)
	}
	if c.TPS <= 0 {
		return fmt.Errorf("%d is not a valid tps", c.TPS)
	}
	if c.CellSpacing <= 0 {
		return fmt.Errorf("%v is not a valid cell spacing", c.CellSpacing)
	}
	if c.DirtyPrefixCount < 0 {
		return fmt.Errorf("%d is not a valid dirty prefix count", c.DirtyPrefixCount)
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("%d is not a valid log interval", c.LogEvery)
	}

	return nil
}
