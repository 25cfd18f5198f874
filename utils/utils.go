package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Commands understood by the CLI
var commands = map[string]bool{
	"scan":   true,
	"labels": true,
}

// ParseArguments converts command-line arguments into a map of flags and values
func ParseArguments(argv []string) map[string]string {
	args := make(map[string]string)

	command := ""
	commandIndex := -1
	for i := 1; i < len(argv); i++ {
		if commands[argv[i]] {
			command = argv[i]
			commandIndex = i
			break
		}
	}

	if command != "" {
		args["command"] = command
	}

	for i := 1; i < len(argv); i++ {
		if i == commandIndex {
			continue
		}

		arg := argv[i]

		// --key=value
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			args[strings.TrimPrefix(parts[0], "--")] = parts[1]
			continue
		}

		// --key value, or a bare boolean --key
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			if i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "--") || i+1 == commandIndex {
				args[flagName] = "true"
			} else {
				args[flagName] = argv[i+1]
				i++
			}
		}
	}

	return args
}

// FirstNonEmpty returns the first non-empty value
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s scan [--config=PATH] [--mode=train|validation|test] [--database=PATH] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("  %s labels [--config=PATH] [--rebuild] [--seed=N] [--fraction=VALUE] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --config      : TOML run configuration (default: $ICHPREP_CONFIG, else built-in stage 1 paths)\n")
	fmt.Printf("  --mode        : Flag only this manifest, even if disabled in the config\n")
	fmt.Printf("  --database    : Record every checked slice in this sqlite ledger (default: $ICHPREP_DATABASE)\n")
	fmt.Printf("  --rebuild     : Rebuild the master table from raw labels even if it exists\n")
	fmt.Printf("  --seed        : Random seed for undersampling and splitting (default: 13)\n")
	fmt.Printf("  --fraction    : Share of the balanced set written to training (0.0-1.0, default: 0.9)\n")
	fmt.Printf("  --debug       : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile     : Log file path (default: $ICHPREP_LOGFILE, else ichprep.log in debug mode)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s labels --config=ichprep.toml\n", os.Args[0])
	fmt.Printf("  %s scan --config=ichprep.toml --mode=validation --database=ichprep.db\n", os.Args[0])
}

// ParseFraction parses and validates a split fraction
func ParseFraction(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f >= 1 {
		return 0, fmt.Errorf("invalid fraction value '%s' (use a value between 0 and 1)", s)
	}
	return f, nil
}

// ParseSeed parses a random seed
func ParseSeed(s string) (int64, error) {
	seed, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seed value '%s': %w", s, err)
	}
	return seed, nil
}
