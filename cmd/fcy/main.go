package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jshumphrey/full-course-yellow/internal/alert"
	"github.com/jshumphrey/full-course-yellow/internal/bot"
	"github.com/jshumphrey/full-course-yellow/internal/commands"
	"github.com/jshumphrey/full-course-yellow/internal/config"
	"github.com/jshumphrey/full-course-yellow/internal/logging"
	"github.com/jshumphrey/full-course-yellow/internal/membership"
	"github.com/jshumphrey/full-course-yellow/internal/origin"
	"github.com/jshumphrey/full-course-yellow/internal/pipeline"
	"github.com/jshumphrey/full-course-yellow/internal/platform"
	"github.com/jshumphrey/full-course-yellow/internal/probe"
	"github.com/jshumphrey/full-course-yellow/internal/registry"
	"github.com/jshumphrey/full-course-yellow/internal/resolver"
)

const configPath = "fcy.yaml"

func main() {
	fmt.Println("Starting Full Course Yellow")

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Config load failed: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.Logging.Level, cfg.Logging.Path); err != nil {
		fmt.Printf("Logging init failed: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if cfg.Bot.Token == "" {
		logging.Error("No bot token configured; set DISCORD_TOKEN or bot.token")
		os.Exit(1)
	}

	reg, err := registry.FromConfig(cfg.Guilds, cfg.Classifiers)
	if err != nil {
		logging.Error("Guild registry configuration is invalid: %v", err)
		os.Exit(1)
	}

	if err := bot.Initialize(cfg.Bot.Token); err != nil {
		logging.Error("Bot initialization failed: %v", err)
		os.Exit(1)
	}
	session := bot.GetSession()

	pf := platform.NewDiscord(session.GetDiscord())
	index := membership.New(reg)
	res := resolver.New(pf)
	prober := probe.New(reg, pf, cfg.Alerts.ProbeConcurrency)
	composer := alert.NewComposer(reg, prober)
	dispatcher := alert.NewDispatcher(reg, composer, pf)

	testingUsers := make(map[string]struct{}, len(cfg.Alerts.TestingUserIDs))
	for _, id := range cfg.Alerts.TestingUserIDs {
		testingUsers[id] = struct{}{}
	}

	pl := &pipeline.Pipeline{
		Registry:       reg,
		Index:          index,
		Resolver:       res,
		Origin:         origin.New(reg, pf, time.Duration(cfg.Alerts.SelectTimeoutSeconds)*time.Second),
		Composer:       composer,
		Dispatcher:     dispatcher,
		Attachments:    platform.NewAttachmentFetcher(2),
		TestingUserIDs: testingUsers,
	}

	// Event handlers go on before the gateway opens.
	session.SetupEventHandlers(bot.EventDeps{
		Registry:   reg,
		Index:      index,
		Platform:   pf,
		Composer:   composer,
		Dispatcher: dispatcher,
		AutoAlerts: cfg.Alerts.AutoAlerts,
	})

	if err := session.Connect(); err != nil {
		logging.Error("Discord connection failed: %v", err)
		os.Exit(1)
	}

	if err := commands.Initialize(session, commands.Deps{
		Registry:   reg,
		Index:      index,
		Resolver:   res,
		Pipeline:   pl,
		Selections: platform.NewSelectionRouter(),
	}); err != nil {
		logging.Error("Command registration failed: %v", err)
		session.Close()
		os.Exit(1)
	}

	logging.Info("All components started successfully")

	waitForShutdown()

	if err := session.Close(); err != nil {
		logging.Warn("Error closing Discord session: %v", err)
	}
	logging.Info("Shutdown complete")
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nShutdown signal received")
}
