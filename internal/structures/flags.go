package structures

type CliFlags struct {
	ConfigPath   string
	InstanceName string
	DebugMode    bool
}
