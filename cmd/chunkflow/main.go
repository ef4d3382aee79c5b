package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/chunkflow/config"
	"github.com/lixenwraith/chunkflow/logging"
	"github.com/lixenwraith/chunkflow/navigation"
	"github.com/lixenwraith/chunkflow/obstacle"
	"github.com/lixenwraith/chunkflow/server"
	"github.com/lixenwraith/chunkflow/service"
)

var (
	configFlag = flag.String("config", "", "Config file (yaml, toml or json)")
	envFlag    = flag.String("env", ".env", "Optional .env file loaded before the environment")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFlag, *envFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chunkflow: %v\n", err)
		os.Exit(1)
	}

	sink, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chunkflow: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, sink.Logger)
	stop()
	if err != nil {
		sink.Logger.WithError(err).Error("chunkflow stopped")
		sink.Close()
		os.Exit(1)
	}
	sink.Close()
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	terrain, err := cfg.TerrainSpec()
	if err != nil {
		return err
	}
	nav, err := navigation.NewNavigator(terrain, cfg.NavigatorOptions(), log)
	if err != nil {
		return err
	}
	defer nav.Close()

	obsCfg, err := cfg.ObstacleSpec()
	if err != nil {
		return err
	}
	layout, err := obstacle.Generate(terrain, obsCfg)
	if err != nil {
		return err
	}
	if err := layout.Apply(nav); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"mode":    obsCfg.Mode,
		"blocked": layout.BlockedCount(),
		"cells":   terrain.NumCells(),
	}).Info("Obstacles applied")

	sim := navigation.NewSimulation(nav, cfg.Navigation.AgentSpeed, log)
	sim.OnArrive(func(ids []int) {
		log.WithField("agents", ids).Info("Agents idle")
	})

	hub := server.NewBroadcaster()
	defer hub.Close()
	router := server.NewRouter(server.NewAPI(sim, hub, log), cfg.Server)

	services := service.NewHub(log)
	if err := services.Register(server.NewSimulationService(sim, hub, cfg.Navigation.Tick, log)); err != nil {
		return err
	}
	if err := services.Register(server.NewHTTPService(cfg.Server, router, log)); err != nil {
		return err
	}
	if err := services.InitAll(ctx); err != nil {
		return err
	}
	if err := services.StartAll(); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutting down")
	services.StopAll()
	return nil
}
