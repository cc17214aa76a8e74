package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath    string        `yaml:"filePath" validate:"required|unixPath"`
	LockTimeout time.Duration `yaml:"lockTimeout"`
	ArchiveDir  string        `yaml:"archiveDir"`
	ArchiveTTL  time.Duration `yaml:"archiveTTL"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CoronaConfig struct {
	BaseURL          string        `yaml:"baseUrl" validate:"required"`
	ServiceID        string        `yaml:"serviceId" validate:"required"`
	RequestTimeout   time.Duration `yaml:"requestTimeout" validate:"required|min:1"`
	CountryListTTL   time.Duration `yaml:"countryListTTL"`
	CountryCountTTL  time.Duration `yaml:"countryCountTTL"`
	MaxSubscriptions int           `yaml:"maxSubscriptions"`
	PromptTimeout    time.Duration `yaml:"promptTimeout"`
}

type FeedConfig struct {
	Interval   time.Duration `yaml:"interval" validate:"required|min:1"`
	StaleAfter time.Duration `yaml:"staleAfter"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName      string
	Debug        bool
	Path         string
	InstanceName string        `yaml:"instanceName" validate:"required"`
	WebServer    Server        `yaml:"webServer"`
	Persistence  Persistence   `yaml:"persistence"`
	Corona       CoronaConfig  `yaml:"corona"`
	Feed         FeedConfig    `yaml:"feed"`
	Logger       LoggerConfig  `yaml:"logger"`
	Cache        CacheConfig   `yaml:"cache"`
	Metrics      MetricsConfig `yaml:"metrics"`
}
