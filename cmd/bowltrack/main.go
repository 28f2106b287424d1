package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/cmd/bowltrack/internal/commands"
	"github.com/appetiteclub/bowltrack/internal/app"
)

const appNamespace = "BOWLTRACK"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	flags, args := commands.SplitArgs(os.Args[2:])

	config, err := apt.LoadConfig(appNamespace, flags)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	var run func(context.Context, *apt.Config, apt.Logger, []string) error
	switch command {
	case "scan":
		run = commands.Scan
	case "prepare":
		run = commands.Prepare
	case "reconcile":
		run = commands.Reconcile
	case "missing":
		run = commands.Missing
	case "list":
		run = commands.List
	case "stats":
		run = commands.Stats
	case "watch":
		run = commands.Watch
	case "seed-demo":
		run = commands.SeedDemo
	case "reset":
		run = commands.Reset

	case "version":
		fmt.Printf("%s version %s\n", app.AppName, app.AppVersion)
		return

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := run(ctx, config, logger, args); err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}
}

func printUsage() {
	name := app.AppName
	fmt.Printf(`%s - reusable bowl tracking

Usage:
  %s <command> [args] [--key=value ...]

Commands:
  scan <kitchen|return> <code> <user>   Record a kitchen issue or a customer return
  prepare <code> <user> [dish]          Mark an issued bowl as prepared
  reconcile <assignments.json>          Apply a customer assignment feed to active bowls
  missing <assignments.json>            Report active bowls overdue for return
  list [status]                         List bowls, optionally by status
  stats [kitchen|return]                Bowl counts and overnight scans per user
  watch                                 Print bowl events from NATS
  seed-demo                             Load demo bowls (once)
  reset                                 Delete all bowl data - USE WITH CAUTION
  version                               Print version information
  help                                  Show this help message

Environment Variables:
  BOWLTRACK_LOG_LEVEL            Log level: debug, info, warn, error (default: info)
  BOWLTRACK_STORE_KIND           file or mongo (default: file)
  BOWLTRACK_STORE_FILE_PATH      Data file (default: bowl_data.json)
  BOWLTRACK_DB_MONGO_URL         MongoDB connection URL (default: mongodb://localhost:27017)
  BOWLTRACK_DB_MONGO_NAME        MongoDB database (default: bowltrack)
  BOWLTRACK_NATS_ENABLED         Publish bowl events to NATS (default: false)
  BOWLTRACK_NATS_URL             NATS URL (default: nats://localhost:4222)
  BOWLTRACK_NATS_STREAM_ENABLED  Use the BOWL_EVENTS JetStream stream (default: false)
  BOWLTRACK_REPORT_FORMAT        missing report format: text or json (default: text)

Examples:
  %s scan kitchen https://vyt.to/ABC123 Alice
  %s prepare ABC123 Alice A
  BOWLTRACK_STORE_KIND=mongo %s missing assignments.json

`, name, name, name, name, name)
}
