// Package config - run configuration from defaults, an optional YAML file and TRASHGEN_ environment variables.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-trashgen/images"
)

// EnvPrefix prefixes environment overrides, e.g. TRASHGEN_SEQUENCE_COUNT.
const EnvPrefix = "TRASHGEN"

// Config is the full configuration of a dataset run.
type Config struct {
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Classes  ClassesConfig  `mapstructure:"classes" yaml:"classes"`
	Frame    FrameConfig    `mapstructure:"frame" yaml:"frame"`
	Sequence SequenceConfig `mapstructure:"sequence" yaml:"sequence"`
	Run      RunConfig      `mapstructure:"run" yaml:"run"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// OutputConfig locates and encodes the dataset.
type OutputConfig struct {
	// Dir receives the trash_dataset directory.
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Quality int    `mapstructure:"quality" yaml:"quality"`
}

// ClassesConfig locates the class definitions and their textures.
type ClassesConfig struct {
	CSV string `mapstructure:"csv" yaml:"csv"`
	// Colors is the color table CSV. Empty generates a palette.
	Colors string `mapstructure:"colors" yaml:"colors"`
	// Patterns holds pattern__NNNN tiles. Empty renders procedural tiles.
	Patterns    string `mapstructure:"patterns" yaml:"patterns"`
	PatternSize int    `mapstructure:"pattern_size" yaml:"pattern_size"`
}

// FrameConfig sets the frame size. A non-empty Resolution ("720p",
// "640x480") replaces Width and Height.
type FrameConfig struct {
	Resolution string `mapstructure:"resolution" yaml:"resolution,omitempty"`
	Width      int    `mapstructure:"width" yaml:"width"`
	Height     int    `mapstructure:"height" yaml:"height"`
}

// SequenceConfig shapes the generated sequences.
type SequenceConfig struct {
	Count int `mapstructure:"count" yaml:"count"`
	// Length is the number of frames per sequence. 0 draws it per sequence.
	Length             int `mapstructure:"length" yaml:"length"`
	MaxObjectsPerFrame int `mapstructure:"max_objects_per_frame" yaml:"max_objects_per_frame"`
	TopK               int `mapstructure:"top_k" yaml:"top_k"`
}

// RunConfig controls randomness and parallelism.
type RunConfig struct {
	Seed uint64 `mapstructure:"seed" yaml:"seed"`
	// Workers bounds parallel sequences. 0 sizes the pool to the host.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// LogConfig selects the logger mode: "development" or "release".
type LogConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// Load reads the configuration. Defaults apply first, then the YAML file at
// configPath when it is non-empty, then TRASHGEN_ environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", configPath)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.ApplyResolution(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.dir", "")
	v.SetDefault("output.quality", 90)

	v.SetDefault("classes.csv", "")
	v.SetDefault("classes.colors", "")
	v.SetDefault("classes.patterns", "")
	v.SetDefault("classes.pattern_size", 200)

	v.SetDefault("frame.resolution", "")
	v.SetDefault("frame.width", 1024)
	v.SetDefault("frame.height", 800)

	v.SetDefault("sequence.count", 1)
	v.SetDefault("sequence.length", 0)
	v.SetDefault("sequence.max_objects_per_frame", 5)
	v.SetDefault("sequence.top_k", 20)

	v.SetDefault("run.seed", 0)
	v.SetDefault("run.workers", 0)

	v.SetDefault("log.mode", "development")
}

// ApplyResolution replaces the frame size with the named resolution, if any.
func (c *Config) ApplyResolution() error {
	if c.Frame.Resolution == "" {
		return nil
	}
	r, err := images.ParseResolution(c.Frame.Resolution)
	if err != nil {
		return err
	}
	c.Frame.Width, c.Frame.Height = r.Width, r.Height
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Output.Dir == "":
		return errors.New("output directory is required")
	case c.Classes.CSV == "":
		return errors.New("classes csv is required")
	case c.Frame.Width <= 0 || c.Frame.Height <= 0:
		return errors.Errorf("invalid frame size %dx%d", c.Frame.Width, c.Frame.Height)
	case c.Sequence.Count <= 0:
		return errors.Errorf("sequence count %d must be positive", c.Sequence.Count)
	case c.Sequence.Length < 0:
		return errors.Errorf("sequence length %d cannot be negative", c.Sequence.Length)
	case c.Sequence.MaxObjectsPerFrame <= 0:
		return errors.Errorf("max objects per frame %d must be positive", c.Sequence.MaxObjectsPerFrame)
	case c.Sequence.TopK <= 0 || c.Sequence.TopK > 255:
		// Top-K labels are stored as label+1 in 8-bit masks.
		return errors.Errorf("top-k %d outside [1, 255]", c.Sequence.TopK)
	case c.Output.Quality < 1 || c.Output.Quality > 100:
		return errors.Errorf("jpeg quality %d outside [1, 100]", c.Output.Quality)
	case c.Classes.PatternSize <= 0:
		return errors.Errorf("pattern size %d must be positive", c.Classes.PatternSize)
	case c.Run.Workers < 0:
		return errors.Errorf("worker count %d cannot be negative", c.Run.Workers)
	}
	return nil
}

// Save writes c as YAML that Load reads back.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}
