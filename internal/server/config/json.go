package config

import (
	"encoding/json"
	"os"

	"github.com/taskhive/taskhive/internal/flagx"
	"github.com/taskhive/taskhive/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "10m" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP        string         `json:"endpoint_addr_http"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	MaxTasksPerRequest      int            `json:"max_tasks_per_request"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config command-line flags. If neither flag is set, no JSON file is
// loaded. If the file cannot be read or contains invalid JSON, the function
// panics: a broken config file should stop the server at startup.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.SessionValidityDuration = c.SessionValidityDuration.Duration
	config.MaxTasksPerRequest = c.MaxTasksPerRequest
}
