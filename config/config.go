package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var cfg *Config

func Get() *Config {
	return cfg
}

type Config struct {
	AppName      string `mapstructure:"app_name"`
	DefaultPort  int    `mapstructure:"default_port"`
	UserDataDir  string `mapstructure:"user_data_dir"`
	DatabasePath string `mapstructure:"database_path"`

	Logging struct {
		LogFile    string `mapstructure:"log_file"`
		LogLevel   string `mapstructure:"log_level"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	} `mapstructure:"logging"`

	Youku struct {
		SearchURL      string  `mapstructure:"search_url"`
		DanmuURL       string  `mapstructure:"danmu_url"`
		Cookie         string  `mapstructure:"cookie"`
		CookieFile     string  `mapstructure:"cookie_file"`
		UserAgent      string  `mapstructure:"user_agent"`
		TimeoutSeconds int     `mapstructure:"timeout_seconds"`
		Workers        int     `mapstructure:"workers"`
		RatePerSecond  float64 `mapstructure:"rate_per_second"`
	} `mapstructure:"youku"`

	Export struct {
		OutputDir string `mapstructure:"output_dir"`
		SaveMode  string `mapstructure:"save_mode"`
	} `mapstructure:"export"`
}

// 路径规范化：展开 {{user_data_dir}} 与 ~，转为绝对路径
func normalizePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.Contains(path, "{{user_data_dir}}") {
		userDataDir, _ := normalizePath(viper.GetString("user_data_dir"))
		path = strings.ReplaceAll(path, "{{user_data_dir}}", userDataDir)
	}

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			wd, _ := os.Getwd()
			home = wd
		}
		path = filepath.Join(home, path[1:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve relative path %s: %w", path, err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0755)
}

// setDefaults 注册所有默认值，单独拆出便于测试
func setDefaults(v *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		wd, _ := os.Getwd()
		homeDir = wd
	}

	v.SetDefault("app_name", "YoukuDanmu")
	v.SetDefault("default_port", 5000)
	v.SetDefault("user_data_dir", filepath.Join(homeDir, ".youku-danmu"))
	v.SetDefault("database_path", "{{user_data_dir}}/danmu.db")

	v.SetDefault("logging.log_file", "{{user_data_dir}}/logs/app.log")
	v.SetDefault("logging.log_level", "info")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)

	v.SetDefault("youku.search_url", "https://so.youku.com/search_video/q_%s")
	v.SetDefault("youku.danmu_url", "http://service.danmu.youku.com/list")
	v.SetDefault("youku.cookie", "cna=0;")
	v.SetDefault("youku.cookie_file", "")
	v.SetDefault("youku.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36")
	v.SetDefault("youku.timeout_seconds", 30)
	v.SetDefault("youku.workers", 8)
	v.SetDefault("youku.rate_per_second", 0)

	v.SetDefault("export.output_dir", "{{user_data_dir}}/export")
	v.SetDefault("export.save_mode", "csv_and_db")
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 环境变量覆盖，例如 YOUKU_WORKERS=4
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var configObj Config
	if err := viper.Unmarshal(&configObj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	pathsToNormalize := []*string{
		&configObj.UserDataDir,
		&configObj.DatabasePath,
		&configObj.Logging.LogFile,
		&configObj.Youku.CookieFile,
		&configObj.Export.OutputDir,
	}
	for _, pathPtr := range pathsToNormalize {
		normalized, err := normalizePath(*pathPtr)
		if err != nil {
			return nil, fmt.Errorf("path normalization error: %w", err)
		}
		*pathPtr = normalized
	}

	if err := ensureDir(configObj.UserDataDir); err != nil {
		return nil, fmt.Errorf("failed to create user data dir: %w", err)
	}
	if err := ensureDir(filepath.Dir(configObj.DatabasePath)); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}
	if err := ensureDir(configObj.Export.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}

	cfg = &configObj
	return cfg, nil
}
