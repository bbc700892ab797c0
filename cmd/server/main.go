package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/suika/pkg/api"
	"github.com/cbodonnell/suika/pkg/config"
	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/network"
	"github.com/cbodonnell/suika/pkg/repositories"
	"github.com/cbodonnell/suika/pkg/rooms"
	"github.com/cbodonnell/suika/pkg/version"
	"github.com/cbodonnell/suika/pkg/workers"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		panic(fmt.Sprintf("Failed to load environment: %v", err))
	}
	cfg, err := config.ParseServerConfig(os.Args[1:], os.Getenv)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse config: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, cfg.LogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", cfg.LogLevel)

	log.Info("Starting relay server version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repository, err := repositories.NewRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(context.Background())

	clientManager := network.NewClientManager()
	networkManager := network.NewNetworkManager(network.NewNetworkManagerOptions{
		ClientManager:  clientManager,
		OriginPatterns: cfg.OriginPatterns,
		WriteTimeout:   cfg.WriteTimeout,
	})

	roomEventChan := make(chan rooms.Event, workers.RoomEventChannelSize)
	directory := rooms.NewDirectory(rooms.NewDirectoryOptions{
		Emitter: networkManager,
		Events:  roomEventChan,
	})

	saveRoomEventWorker := workers.NewSaveRoomEventWorker(workers.NewSaveRoomEventWorkerOptions{
		Repository:    repository,
		RoomEventChan: roomEventChan,
	})
	saveDone := make(chan struct{})
	go func() {
		saveRoomEventWorker.Start(ctx)
		close(saveDone)
	}()

	connectionEventWorker := workers.NewConnectionEventWorker(workers.NewConnectionEventWorkerOptions{
		ClientEventChan: clientManager.GetClientEventChan(),
		Directory:       directory,
	})
	go connectionEventWorker.Start(ctx)

	if cfg.RoomListInterval > 0 {
		broadcastRoomListWorker := workers.NewBroadcastRoomListWorker(workers.NewBroadcastRoomListWorkerOptions{
			ClientManager: clientManager,
			Directory:     directory,
			Emitter:       networkManager,
			Interval:      cfg.RoomListInterval,
		})
		go broadcastRoomListWorker.Start(ctx)
	}

	var tlsConfig *api.TLSConfig
	if cfg.TLSCertFile != "" {
		tlsConfig = &api.TLSConfig{
			CertFile: cfg.TLSCertFile,
			KeyFile:  cfg.TLSKeyFile,
		}
	}
	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:       cfg.Port,
		TLS:        tlsConfig,
		Rooms:      directory,
		Repository: repository,
		WebSocket:  networkManager,
	})
	go apiServer.Start()

	<-ctx.Done()
	log.Info("Shutting down")

	networkManager.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop API server: %v", err)
	}
	<-saveDone
}
