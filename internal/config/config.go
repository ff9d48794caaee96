package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string `mapstructure:"service_name"`
	Env         string `mapstructure:"env"`
	Addr        string `mapstructure:"addr"`
	LogFile     string `mapstructure:"log_file"`
}

// Load reads an optional lanepay.yml from the working directory or /etc/lanepay,
// with LANEPAY_* environment variables taking precedence over file values.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("lanepay")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/lanepay")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LANEPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("service_name", "lanepay")
	v.SetDefault("env", "dev")
	v.SetDefault("addr", ":8080")
	v.SetDefault("log_file", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
		// no config file; defaults plus env overrides apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
