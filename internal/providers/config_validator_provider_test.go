package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"coronabot/internal/structures"
)

func validConfig() *structures.Config {
	return &structures.Config{
		InstanceName: "coronabot-1",
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Persistence: structures.Persistence{
			FilePath: "/tmp/coronabot.json",
		},
		Corona: structures.CoronaConfig{
			BaseURL:        "https://services1.arcgis.com/0MSEUqKaxRlEPj5g/arcgis/rest/services",
			ServiceID:      "ncov_cases",
			RequestTimeout: 120 * time.Second,
		},
		Feed: structures.FeedConfig{
			Interval: 20 * time.Minute,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyInstanceName(t *testing.T) {
	c := validConfig()
	c.InstanceName = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_EmptyBaseURL(t *testing.T) {
	c := validConfig()
	c.Corona.BaseURL = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_EmptyServiceID(t *testing.T) {
	c := validConfig()
	c.Corona.ServiceID = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_MissingFilePath(t *testing.T) {
	c := validConfig()
	c.Persistence.FilePath = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}
