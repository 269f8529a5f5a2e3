package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/m3rciful/coursebot/core/buildinfo"
	corecmd "github.com/m3rciful/coursebot/core/cmd"
	"github.com/m3rciful/coursebot/internal/app"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "config file path (overrides "+corecmd.DefaultConfigEnvVar+")")
	flag.Parse()

	if *showVersion {
		fmt.Println("coursebot", buildinfo.String())
		return
	}
	if err := corecmd.Run(corecmd.Options{
		ConfigPath:        *configPath,
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	}); err != nil {
		log.Fatalf("coursebot: %v", err)
	}
}
