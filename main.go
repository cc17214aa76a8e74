package main

import (
	"flag"
	"fmt"
	"os"

	"coronabot/internal/di"
	"coronabot/internal/structures"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the configuration file")
	instanceName := flag.String("instance", "", "override the configured instance name")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	flags := &structures.CliFlags{
		ConfigPath:   *configPath,
		InstanceName: *instanceName,
		DebugMode:    *debug,
	}

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
