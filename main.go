package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"ichprep/balance"
	"ichprep/config"
	"ichprep/database"
	"ichprep/logging"
	"ichprep/scanner"
	"ichprep/signalhandler"
	"ichprep/utils"

	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A .env file is optional; it only supplies defaults for the flags below
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Warning: could not read .env: %v\n", err)
	}

	args := utils.ParseArguments(os.Args)

	command, hasCommand := args["command"]
	if !hasCommand {
		utils.PrintUsage()
		return 1
	}

	_, debugMode := args["debug"]
	logPath := utils.FirstNonEmpty(args["logfile"], os.Getenv("ICHPREP_LOGFILE"))
	if logPath == "" && debugMode {
		logPath = "ichprep.log"
	}
	if logPath != "" {
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else if debugMode {
			fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
		}
	}
	defer logging.CloseLogger()
	signalhandler.SetupHandler(logging.CloseLogger)

	cfg, err := loadConfig(utils.FirstNonEmpty(args["config"], os.Getenv("ICHPREP_CONFIG")))
	if err != nil {
		log.Printf("Error loading configuration: %v", err)
		return 1
	}

	switch command {
	case "scan":
		return handleScanCommand(args, cfg, debugMode)
	case "labels":
		return handleLabelsCommand(args, cfg)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		utils.PrintUsage()
		return 1
	}
}

// loadConfig reads path over the defaults, or returns the defaults when path is empty
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.DefaultConfig()
		return &cfg, nil
	}
	return config.Load(path)
}

func handleScanCommand(args map[string]string, cfg *config.Config, debugMode bool) int {
	runs := cfg.EnabledRuns()
	if mode, ok := args["mode"]; ok {
		selected, found := cfg.Run(config.Mode(mode))
		if !found {
			log.Printf("No scan run configured for mode %q", mode)
			return 1
		}
		runs = []config.ScanRun{selected}
	}

	if err := cfg.Validate(); err != nil {
		log.Printf("Invalid configuration: %v", err)
		return 1
	}
	if len(runs) == 0 {
		log.Printf("No scan runs enabled; nothing to do")
		return 1
	}

	var ledger *sql.DB
	ledgerPath := utils.FirstNonEmpty(args["database"], os.Getenv("ICHPREP_DATABASE"), cfg.Scan.Ledger)
	if ledgerPath != "" {
		db, err := database.InitDatabase(ledgerPath)
		if err != nil {
			log.Printf("Error initializing ledger %s: %v", ledgerPath, err)
			return 1
		}
		defer db.Close()
		ledger = db
	}

	startTime := time.Now()
	summaries, err := scanner.ScanRuns(ledger, cfg, runs, debugMode)
	if err != nil {
		log.Printf("Error scanning manifests: %v", err)
		return 1
	}

	fmt.Printf("\nAll done in %v.\n", time.Since(startTime).Round(time.Second))
	for _, s := range summaries {
		fmt.Printf("- %s: %d/%d slices flagged -> %s\n", s.Mode, s.Bad, s.Total, s.Output)
		if ledger == nil {
			continue
		}
		stats, err := database.GetScanStats(ledger, s.RunID)
		if err == nil && stats != nil {
			fmt.Printf("  ledger run %s: %d recorded, %d flagged\n", s.RunID, stats.TotalSlices, stats.BadSlices)
		}
	}
	return 0
}

func handleLabelsCommand(args map[string]string, cfg *config.Config) int {
	if s, ok := args["seed"]; ok {
		seed, err := utils.ParseSeed(s)
		if err != nil {
			log.Printf("%v", err)
			return 1
		}
		cfg.Labels.Seed = seed
	}
	if s, ok := args["fraction"]; ok {
		fraction, err := utils.ParseFraction(s)
		if err != nil {
			log.Printf("%v", err)
			return 1
		}
		cfg.Labels.TrainFraction = fraction
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("Invalid configuration: %v", err)
		return 1
	}

	_, rebuild := args["rebuild"]

	startTime := time.Now()
	result, err := balance.Run(cfg.Labels, rebuild)
	if err != nil {
		log.Printf("Error building splits: %v", err)
		return 1
	}

	fmt.Printf("Master table (%s): %d images\n", result.Source, result.Master)
	fmt.Printf("Removed duplicates: %d\n", result.Removed)
	fmt.Printf("Balanced set: %d images (%d positive, %d negative)\n", result.Balanced, result.Positive, result.Balanced-result.Positive)
	fmt.Printf("Train: %d -> %s\n", result.Train, cfg.Labels.TrainOutput)
	fmt.Printf("Validation: %d -> %s\n", result.Validation, cfg.Labels.ValidationOutput)
	fmt.Printf("Total time: %v\n", time.Since(startTime).Round(time.Millisecond))
	return 0
}
