package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/suika/pkg/client"
	clientnetwork "github.com/cbodonnell/suika/pkg/client/network"
	"github.com/cbodonnell/suika/pkg/config"
	"github.com/cbodonnell/suika/pkg/game/constants"
	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/network"
	"github.com/cbodonnell/suika/pkg/queue"
	"github.com/cbodonnell/suika/pkg/version"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		panic(fmt.Sprintf("Failed to load environment: %v", err))
	}
	cfg, err := config.ParseClientConfig(os.Args[1:], os.Getenv)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse config: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, cfg.LogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", cfg.LogLevel)
	log.Info("Starting bot client version %s", version.Get())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	framing, err := network.ParseFraming(cfg.Encoding)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse encoding: %v", err))
	}

	messageQueue := queue.NewInMemoryQueue(1024)
	networkManager := clientnetwork.NewNetworkManager(clientnetwork.NewNetworkManagerOptions{
		ServerURL:    cfg.ServerURL,
		Framing:      framing,
		MessageQueue: messageQueue,
	})
	if err := networkManager.Start(ctx); err != nil {
		panic(fmt.Sprintf("Failed to start network manager: %v", err))
	}
	defer networkManager.Stop()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	dropEvery := uint64(cfg.DropInterval * time.Duration(constants.TickRate) / time.Second)
	game := client.NewGame(client.NewGameOptions{
		Sender:       networkManager,
		MessageQueue: messageQueue,
		Input:        client.NewBot(seed, dropEvery),
		Room:         cfg.Room,
		Username:     cfg.Username,
		StopOnDeath:  cfg.Duration == 0,
	})

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go func() {
		select {
		case err := <-networkManager.Errors():
			log.Error("Lost connection to server: %v", err)
			cancelRun()
		case <-runCtx.Done():
		}
	}()
	if err := game.Run(runCtx); err != nil {
		log.Error("Game stopped: %v", err)
	}
	if match := game.Match(); match != nil {
		log.Info("Final scores: %s %d, %s %d",
			match.Player(0).Username, match.Player(0).Score,
			match.Player(1).Username, match.Player(1).Score,
		)
	}
}
