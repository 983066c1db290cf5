package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player/chat"
	"github.com/oriumgames/nametags"
	"github.com/pelletier/go-toml/v2"
)

func main() {
	log := slog.Default()
	chat.Global.Subscribe(chat.StdoutSubscriber{})

	conf, err := readConfig(log)
	if err != nil {
		log.Error("read server config", "error", err)
		os.Exit(1)
	}

	plugin, err := nametags.NewBuilder().
		Directory("plugins/nametags").
		Logger(log).
		Init()
	if err != nil {
		log.Error("init nametags", "error", err)
		os.Exit(1)
	}
	defer plugin.Close()
	log.Info("nametags loaded", "version", nametags.Version)

	plugin.WrapListeners(&conf)
	for _, c := range plugin.Commands() {
		cmd.Register(c)
	}

	srv := conf.New()
	srv.CloseOnProgramEnd()

	srv.Listen()
	for p := range srv.Accept() {
		plugin.Accept(p)
	}
}

// readConfig reads the server configuration from config.toml, writing the
// default configuration if the file does not exist.
func readConfig(log *slog.Logger) (server.Config, error) {
	c := server.DefaultConfig()
	var zero server.Config

	if _, err := os.Stat("config.toml"); os.IsNotExist(err) {
		data, err := toml.Marshal(c)
		if err != nil {
			return zero, fmt.Errorf("encode default config: %v", err)
		}
		if err := os.WriteFile("config.toml", data, 0644); err != nil {
			return zero, fmt.Errorf("create default config: %v", err)
		}
		return c.Config(log)
	}

	data, err := os.ReadFile("config.toml")
	if err != nil {
		return zero, fmt.Errorf("read config: %v", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return zero, fmt.Errorf("decode config: %v", err)
	}
	return c.Config(log)
}
