package config

const (
	// EnvConfigPrefix is the prefix of all environment configurations
	EnvConfigPrefix = "DSKM_"
	// ConfigFilePath is the environment variable with the path of the config file or folder
	ConfigFilePath = "DSKM_CONFIG_FILE"
)
