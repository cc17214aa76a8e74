package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"coronabot/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("instanceName", "CORONABOT_INSTANCE_NAME")
	viper.BindEnv("logger.level", "CORONABOT_LOG_LEVEL")
	viper.BindEnv("feed.interval", "CORONABOT_FEED_INTERVAL")
	viper.BindEnv("persistence.filePath", "CORONABOT_DB_PATH")
	viper.BindEnv("cache.enabled", "CORONABOT_CACHE_ENABLED")
	viper.BindEnv("cache.size", "CORONABOT_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	applyDefaults(&conf)

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "CoronaBot"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode
	if flags.InstanceName != "" {
		conf.InstanceName = flags.InstanceName
	}

	return &conf, nil
}
