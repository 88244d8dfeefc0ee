package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type AppCfg struct {
	Name string
	Env  string
	Host string
	Port int
}

type LogCfg struct {
	Level string
}

type StoreCfg struct {
	Path string
}

type PolicyCfg struct {
	// PrivilegedEmail is the single identity that is always Admin.
	PrivilegedEmail string
}

type ClientCfg struct {
	BaseURL            string
	FetchMaxRetries    int
	FetchBackoffBaseMs int
	RequestTimeoutSec  int
}

type Config struct {
	App    AppCfg
	Log    LogCfg
	Store  StoreCfg
	Policy PolicyCfg
	Client ClientCfg
}

func Load() (*Config, error) {
	base := viper.New()
	base.SetConfigName("config")
	base.SetConfigType("yaml")
	base.AddConfigPath("./configs")
	base.AddConfigPath(".")
	base.AutomaticEnv()
	base.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	base.SetEnvPrefix("APP") // e.g. APP_APP_PORT -> app.port

	// First assign a default value (effective regardless of whether there is a file or not)
	setDefaults(base)

	// Read the file (if any)
	if err := base.ReadInConfig(); err == nil {
		// After finding the file, manually perform one expansion of ${ENV}, and then parse it.
		path := base.ConfigFileUsed()
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		expanded := os.ExpandEnv(string(raw))

		// Load the expanded content with a new viper and copy the env settings.
		v := viper.New()
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, err
		}
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.SetEnvPrefix("APP")
		setDefaults(v)

		cfg := new(Config)
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	// No files are also allowed, using only env + default values
	cfg := new(Config)
	if err := base.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stagetrack")
	v.SetDefault("app.env", "release")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 3000)
	v.SetDefault("log.level", "info")
	v.SetDefault("store.path", "data/tracker.json")
	v.SetDefault("policy.privilegedEmail", "admin@stagetrack.local")
	v.SetDefault("client.baseURL", "http://localhost:3000")
	v.SetDefault("client.fetchMaxRetries", 5)
	v.SetDefault("client.fetchBackoffBaseMs", 500)
	v.SetDefault("client.requestTimeoutSec", 30)
}
