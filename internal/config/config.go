package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/claimvision-cli/internal/schema"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. CLAIMVISION_ANOMALY_THRESHOLD.
const EnvPrefix = "CLAIMVISION"

// Global configuration structure.
type Global struct {
	// Files
	RawDataPath     string `mapstructure:"raw_data_path" yaml:"raw_data_path"`
	CleanedDataPath string `mapstructure:"cleaned_data_path" yaml:"cleaned_data_path"`
	DataDir         string `mapstructure:"data_dir" yaml:"data_dir"`
	ChartDir        string `mapstructure:"chart_dir" yaml:"chart_dir"`
	ModelPath       string `mapstructure:"model_path" yaml:"model_path"`

	// Storage
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	DBDriver     string `mapstructure:"db_driver" yaml:"db_driver"`
	TableName    string `mapstructure:"table_name" yaml:"table_name"`

	// Columns and policies
	TargetColumn     string  `mapstructure:"target_column" yaml:"target_column"`
	CostColumn       string  `mapstructure:"cost_column" yaml:"cost_column"`
	AgeColumn        string  `mapstructure:"age_column" yaml:"age_column"`
	AnomalyThreshold float64 `mapstructure:"anomaly_threshold" yaml:"anomaly_threshold"`
	StrictLabels     bool    `mapstructure:"strict_labels" yaml:"strict_labels"`

	// Classifier
	Trees     int     `mapstructure:"trees" yaml:"trees"`
	MaxDepth  int     `mapstructure:"max_depth" yaml:"max_depth"`
	TestRatio float64 `mapstructure:"test_ratio" yaml:"test_ratio"`
	Seed      int64   `mapstructure:"seed" yaml:"seed"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists every configuration key in display order.
var Keys = []string{
	"raw_data_path", "cleaned_data_path", "data_dir", "chart_dir", "model_path",
	"database_path", "db_driver", "table_name",
	"target_column", "cost_column", "age_column", "anomaly_threshold", "strict_labels",
	"trees", "max_depth", "test_ratio", "seed",
	"log_level", "log_format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("raw_data_path", filepath.Join("data", "insurance.csv"))
	v.SetDefault("cleaned_data_path", filepath.Join("data", "cleaned_insurance.csv"))
	v.SetDefault("data_dir", "data")
	v.SetDefault("chart_dir", filepath.Join("data", "charts"))
	v.SetDefault("model_path", filepath.Join("models", schema.FileModel))
	// storage
	v.SetDefault("database_path", filepath.Join("database", schema.FileDatabase))
	v.SetDefault("db_driver", "sqlite3")
	v.SetDefault("table_name", schema.TableCleaned)
	// columns
	v.SetDefault("target_column", schema.ColClaim)
	v.SetDefault("cost_column", schema.ColCharges)
	v.SetDefault("age_column", schema.ColAge)
	v.SetDefault("anomaly_threshold", schema.DefaultCostThreshold)
	v.SetDefault("strict_labels", true)
	// classifier
	v.SetDefault("trees", 100)
	v.SetDefault("max_depth", 0)
	v.SetDefault("test_ratio", 0.2)
	v.SetDefault("seed", 42)
	// logging
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// DefaultPath returns ~/.claimvision/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".claimvision", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.claimvision/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no stage can work with.
func (c *Global) Validate() error {
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	if c.TestRatio <= 0 || c.TestRatio >= 1 {
		return fmt.Errorf("test_ratio must be in (0,1), got %v", c.TestRatio)
	}
	if c.Trees < 1 {
		return fmt.Errorf("trees must be positive, got %d", c.Trees)
	}
	if c.TargetColumn == "" {
		return fmt.Errorf("target_column must not be empty")
	}
	return nil
}

// Set assigns one key from its string form, as given to `config set`.
func (c *Global) Set(key, value string) error {
	var err error
	switch key {
	case "raw_data_path":
		c.RawDataPath = value
	case "cleaned_data_path":
		c.CleanedDataPath = value
	case "data_dir":
		c.DataDir = value
	case "chart_dir":
		c.ChartDir = value
	case "model_path":
		c.ModelPath = value
	case "database_path":
		c.DatabasePath = value
	case "db_driver":
		c.DBDriver = value
	case "table_name":
		c.TableName = value
	case "target_column":
		c.TargetColumn = value
	case "cost_column":
		c.CostColumn = value
	case "age_column":
		c.AgeColumn = value
	case "anomaly_threshold":
		c.AnomalyThreshold, err = strconv.ParseFloat(value, 64)
	case "strict_labels":
		c.StrictLabels, err = strconv.ParseBool(value)
	case "trees":
		c.Trees, err = strconv.Atoi(value)
	case "max_depth":
		c.MaxDepth, err = strconv.Atoi(value)
	case "test_ratio":
		c.TestRatio, err = strconv.ParseFloat(value, 64)
	case "seed":
		c.Seed, err = strconv.ParseInt(value, 10, 64)
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return c.Validate()
}
