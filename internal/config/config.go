// Package config loads cohere.toml through viper and turns it into the
// kernel, estimator and pair plan a run uses.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/cwbudde/algo-insar/dsp/conv"
	"github.com/cwbudde/algo-insar/dsp/kernel"
	"github.com/cwbudde/algo-insar/insar/coherence"
	"github.com/cwbudde/algo-insar/raster"
	"github.com/cwbudde/algo-insar/stack"
)

// Name is the config file base name searched in the working directory and
// in $HOME/.config/cohere.
const Name = "cohere"

// EnvPrefix prefixes environment overrides, e.g. COHERE_WINDOW_WIDTH.
const EnvPrefix = "COHERE"

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("config: invalid")

// Kernel holds the Gaussian widths in samples.
type Kernel struct {
	StdRange   float64 `mapstructure:"std_range"`
	StdAzimuth float64 `mapstructure:"std_azimuth"`
}

// Reader configures SLC input. Width is the range sample count used for
// files that have no .xml sidecar; 0 requires a sidecar.
type Reader struct {
	Width int `mapstructure:"width"`
}

// Quicklook controls TIFF previews.
type Quicklook struct {
	Enabled bool `mapstructure:"enabled"`
	MaxDim  int  `mapstructure:"max_dim"`
}

// S3 selects an upload bucket; an empty bucket disables uploads.
type S3 struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// Config is the complete run configuration.
type Config struct {
	Workdir         string        `mapstructure:"workdir"`
	Polarization    string        `mapstructure:"polarization"`
	Output          string        `mapstructure:"output"`
	Pairs           string        `mapstructure:"pairs"`
	MaxSpan         int           `mapstructure:"max_span"`
	MaxBaselineDays int           `mapstructure:"max_baseline_days"`
	Workers         int           `mapstructure:"workers"`
	Method          string        `mapstructure:"method"`
	Algorithm       string        `mapstructure:"algorithm"`
	Catalog         string        `mapstructure:"catalog"`
	Window          raster.Window `mapstructure:"window"`
	Kernel          Kernel        `mapstructure:"kernel"`
	Reader          Reader        `mapstructure:"reader"`
	Quicklook       Quicklook     `mapstructure:"quicklook"`
	S3              S3            `mapstructure:"s3"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workdir", "/data/krd86/cropped")
	v.SetDefault("polarization", "SLC_vv")
	v.SetDefault("output", "coherence")
	v.SetDefault("pairs", "consecutive")
	v.SetDefault("max_span", 0)
	v.SetDefault("max_baseline_days", 0)
	v.SetDefault("workers", 1)
	v.SetDefault("method", "magnitude")
	v.SetDefault("algorithm", "auto")
	v.SetDefault("catalog", "")

	v.SetDefault("window.range0", 0)
	v.SetDefault("window.azimuth0", 0)
	v.SetDefault("window.width", 30000)
	v.SetDefault("window.length", 3500)

	v.SetDefault("kernel.std_range", 12.0)
	v.SetDefault("kernel.std_azimuth", 4.0)

	v.SetDefault("reader.width", 0)

	v.SetDefault("quicklook.enabled", false)
	v.SetDefault("quicklook.max_dim", 1024)

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")
}

// Default returns the built-in configuration.
func Default() *Config {
	c, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads the configuration. With an empty path cohere.toml is searched
// in "." and $HOME/.config/cohere and a missing file is not an error.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(Name)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	c, err := decode(v)
	if err != nil {
		return nil, err
	}
	c.File = v.ConfigFileUsed()
	return c, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &c, nil
}

// Validate checks every field that can be checked without touching the
// file system.
func (c *Config) Validate() error {
	if c.Workdir == "" {
		return fmt.Errorf("%w: empty workdir", ErrInvalid)
	}
	if c.Polarization == "" {
		return fmt.Errorf("%w: empty polarization", ErrInvalid)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: empty output", ErrInvalid)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers = %d", ErrInvalid, c.Workers)
	}
	if c.MaxSpan < 0 || c.MaxBaselineDays < 0 {
		return fmt.Errorf("%w: negative pair limit", ErrInvalid)
	}
	if c.Reader.Width < 0 {
		return fmt.Errorf("%w: reader width = %d", ErrInvalid, c.Reader.Width)
	}
	if c.Quicklook.Enabled && c.Quicklook.MaxDim <= 0 {
		return fmt.Errorf("%w: quicklook max_dim = %d", ErrInvalid, c.Quicklook.MaxDim)
	}
	if err := c.Window.Validate(); err != nil {
		return err
	}
	if _, err := c.Plan(); err != nil {
		return err
	}
	if _, err := coherence.ParseMethod(c.Method); err != nil {
		return err
	}
	if _, err := conv.ParseAlgorithm(c.Algorithm); err != nil {
		return err
	}
	_, err := c.BuildKernel()
	return err
}

// BuildReader returns the SLC reader.
func (c *Config) BuildReader() raster.Reader {
	return raster.ISCEReader{Width: c.Reader.Width}
}

// BuildKernel returns the separable Gaussian smoothing kernel.
func (c *Config) BuildKernel() (*kernel.Kernel2D, error) {
	return kernel.NewGaussian2D(c.Kernel.StdAzimuth, c.Kernel.StdRange)
}

// BuildEstimator returns an estimator for the configured kernel, method
// and algorithm.
func (c *Config) BuildEstimator() (*coherence.Estimator, error) {
	k, err := c.BuildKernel()
	if err != nil {
		return nil, err
	}
	m, err := coherence.ParseMethod(c.Method)
	if err != nil {
		return nil, err
	}
	alg, err := conv.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return nil, err
	}
	return coherence.New(k, coherence.WithMethod(m), coherence.WithAlgorithm(alg))
}

// Plan returns the pair plan.
func (c *Config) Plan() (stack.Plan, error) {
	return stack.ParsePlan(c.Pairs)
}

// SelectPairs plans the pairs of st.
func (c *Config) SelectPairs(st *stack.Stack) ([]stack.Pair, error) {
	plan, err := c.Plan()
	if err != nil {
		return nil, err
	}
	return st.Pairs(plan,
		stack.WithMaxSpan(c.MaxSpan),
		stack.WithMaxBaseline(c.MaxBaselineDays),
	), nil
}
