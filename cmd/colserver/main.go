package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/server"
	"github.com/godyy/gutils/log"
	"github.com/kelseyhightower/envconfig"
)

type Env struct {
	ConfigPath string `envconfig:"COLSERVER_CONFIG" default:"config.yaml"`
	MapWidth   int    `envconfig:"COLSERVER_MAP_WIDTH" default:"64"`
	MapHeight  int    `envconfig:"COLSERVER_MAP_HEIGHT" default:"64"`
}

func loadEnv() (*Env, error) {
	env := &Env{}
	if err := envconfig.Process("", env); err != nil {
		return nil, err
	}
	return env, nil
}

func erringMain() error {
	env, err := loadEnv()
	if err != nil {
		return fmt.Errorf("process env: %w", err)
	}

	config, err := server.LoadConfig(env.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config %q: %w", env.ConfigPath, err)
	}

	logger, err := log.CreateLogger(&log.Config{
		Level:           log.InfoLevel,
		EnableCaller:    true,
		CallerSkip:      0,
		Development:     false,
		EnableStdOutput: true,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	g := game.NewGame(env.MapWidth, env.MapHeight)
	rules := newBasicRules(g)

	srv, err := server.NewServer(config, server.Params{
		Game:    g,
		PreGame: rules,
		InGame:  rules,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-signalChan
	logger.Infof("receive %v signal", sig)

	srv.Close()
	return nil
}

func main() {
	if err := erringMain(); err != nil {
		fmt.Fprintf(os.Stderr, "colserver: %v\n", err)
		os.Exit(1)
	}
}
