package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoSubcommand is returned when the subcommand is missing or unknown
var ErrNoSubcommand = errors.New("missing subcommand: usage: provenance <snapshot|hash|freeze|repo|editables|compare|snapshots|version> [flags] [path...]")

// ErrUnknownFlag is returned for a flag no subcommand defines
var ErrUnknownFlag = errors.New("unknown flag")

// ErrMissingFlagValue is returned when a flag requires a value but none is provided
var ErrMissingFlagValue = errors.New("flag requires a value")

// ErrBadPairValue is returned when a --file or --data value is not in key=value form
var ErrBadPairValue = errors.New("value must be in key=value form")

// ErrNoPath is returned when "hash" is given no paths
var ErrNoPath = errors.New("no path provided: usage: provenance hash <path>...")

// ErrOnePath is returned when "repo" is not given exactly one path
var ErrOnePath = errors.New("exactly one path required: usage: provenance repo [flags] <path>")

// ErrTwoPaths is returned when "compare" is not given exactly two paths
var ErrTwoPaths = errors.New("exactly two paths required: usage: provenance compare [flags] <before> <after>")

// ErrBadDuration is returned when a flag value does not parse as a duration
var ErrBadDuration = errors.New("value must be a duration such as 720h")

// ErrUnexpectedArg is returned for positional arguments on subcommands that take none
var ErrUnexpectedArg = errors.New("unexpected argument")

// Subcommand represents the CLI subcommand
type Subcommand string

const (
	SubcommandSnapshot  Subcommand = "snapshot"
	SubcommandHash      Subcommand = "hash"
	SubcommandFreeze    Subcommand = "freeze"
	SubcommandRepo      Subcommand = "repo"
	SubcommandEditables Subcommand = "editables"
	SubcommandCompare   Subcommand = "compare"
	SubcommandSnapshots Subcommand = "snapshots"
	SubcommandVersion   Subcommand = "version"
)

// FileArg is one --file category=path occurrence.
type FileArg struct {
	Category string
	Path     string
}

// DataArg is one --data key=value occurrence.
type DataArg struct {
	Key   string
	Value string
}

// Command represents the parsed CLI input
type Command struct {
	Subcommand Subcommand
	Paths      []string // positional arguments (hash, repo)

	// Snapshot flags
	Repos           []string  // --repo <path> (repeatable)
	Files           []FileArg // --file <category=path> (repeatable)
	Data            []DataArg // --data <key=value> (repeatable)
	AllowDirty      bool      // --allow-dirty
	AllowUntracked  bool      // --allow-untracked
	NoDiff          bool      // --no-diff
	OverwriteFiles  bool      // --overwrite-files
	Packages        bool      // --packages
	NoCPUInfo       bool      // --no-cpuinfo
	UpdateTimestamp bool      // --update-timestamp
	Save            bool      // --save

	// Output flags
	Format string // --format <json|yaml>
	Out    string // --out <path>

	// Freeze flags
	Message string // --message <text>

	// Repo flags
	Diff bool // --diff

	// Editables flags
	Track bool // --track

	// Compare flags
	Strict bool // --strict
	JSON   bool // --json
	Last   bool // --last

	// Snapshots flags
	Prune    time.Duration // --prune <duration>
	PruneSet bool

	// Shared flags
	ConfigPath string // --config <path>
	Verbose    bool   // --verbose
}

// ParseArgs parses CLI arguments into a Command.
// It expects args to be os.Args[1:] (excluding the program name).
func ParseArgs(args []string) (Command, error) {
	// Need at least a subcommand
	if len(args) == 0 {
		return Command{}, ErrNoSubcommand
	}

	sub := Subcommand(args[0])
	switch sub {
	case SubcommandSnapshot, SubcommandHash, SubcommandFreeze,
		SubcommandRepo, SubcommandEditables, SubcommandCompare,
		SubcommandSnapshots, SubcommandVersion:
	default:
		return Command{}, ErrNoSubcommand
	}

	cmd := Command{Subcommand: sub}

	i := 1 // Start after subcommand

	for i < len(args) {
		arg := args[i]

		if !strings.HasPrefix(arg, "--") {
			cmd.Paths = append(cmd.Paths, arg)
			i++
			continue
		}

		flagName := strings.TrimPrefix(arg, "--")

		switch flagName {
		case "repo":
			value, err := flagValue(args, i, flagName)
			if err != nil {
				return Command{}, err
			}
			i++
			cmd.Repos = append(cmd.Repos, value)
		case "file":
			value, err := flagValue(args, i, flagName)
			if err != nil {
				return Command{}, err
			}
			i++
			category, path, ok := strings.Cut(value, "=")
			if !ok {
				return Command{}, fmt.Errorf("%w: --file %s", ErrBadPairValue, value)
			}
			cmd.Files = append(cmd.Files, FileArg{Category: category, Path: path})
		case "data":
			value, err := flagValue(args, i, flagName)
			if err != nil {
				return Command{}, err
			}
			i++
			key, val, ok := strings.Cut(value, "=")
			if !ok {
				return Command{}, fmt.Errorf("%w: --data %s", ErrBadPairValue, value)
			}
			cmd.Data = append(cmd.Data, DataArg{Key: key, Value: val})
		case "allow-dirty":
			cmd.AllowDirty = true
		case "allow-untracked":
			cmd.AllowUntracked = true
		case "no-diff":
			cmd.NoDiff = true
		case "overwrite-files":
			cmd.OverwriteFiles = true
		case "packages":
			cmd.Packages = true
		case "no-cpuinfo":
			cmd.NoCPUInfo = true
		case "update-timestamp":
			cmd.UpdateTimestamp = true
		case "save":
			cmd.Save = true
		case "strict":
			cmd.Strict = true
		case "json":
			cmd.JSON = true
		case "last":
			cmd.Last = true
		case "prune":
			value, err := flagValue(args, i, flagName)
			if err != nil {
				return Command{}, err
			}
			i++
			duration, err := time.ParseDuration(value)
			if err != nil {
				return Command{}, fmt.Errorf("%w: --prune %s", ErrBadDuration, value)
			}
			cmd.Prune = duration
			cmd.PruneSet = true
		case "format":
			value, err := flagValue(args, i, flagName)
			if err != nil {
				return Command{}, err
			}
			i++
			cmd.Format = value
		case "out":
			value, err := flagValue(args, i, flagName)
			if err != nil {
				return Command{}, err
			}
			i++
			cmd.Out = value
		case "message":
			value, err := flagValue(args, i, flagName)
			if err != nil {
				return Command{}, err
			}
			i++
			cmd.Message = value
		case "diff":
			cmd.Diff = true
		case "track":
			cmd.Track = true
		case "config":
			value, err := flagValue(args, i, flagName)
			if err != nil {
				return Command{}, err
			}
			i++
			cmd.ConfigPath = value
		case "verbose":
			cmd.Verbose = true
		default:
			return Command{}, fmt.Errorf("%w: --%s", ErrUnknownFlag, flagName)
		}
		i++
	}

	if err := checkPositionals(cmd); err != nil {
		return Command{}, err
	}

	return cmd, nil
}

// flagValue returns the value following the flag at index i.
func flagValue(args []string, i int, flagName string) (string, error) {
	if i+1 >= len(args) {
		return "", fmt.Errorf("%w: --%s", ErrMissingFlagValue, flagName)
	}
	return args[i+1], nil
}

// checkPositionals enforces each subcommand's positional arity: hash
// wants one or more paths, repo exactly one, compare two exported
// files (or none with --last), the rest none.
func checkPositionals(cmd Command) error {
	switch cmd.Subcommand {
	case SubcommandHash:
		if len(cmd.Paths) == 0 {
			return ErrNoPath
		}
	case SubcommandRepo:
		if len(cmd.Paths) != 1 {
			return ErrOnePath
		}
	case SubcommandCompare:
		if cmd.Last {
			if len(cmd.Paths) > 0 {
				return fmt.Errorf("%w: compare --last takes no paths, got %q", ErrUnexpectedArg, cmd.Paths[0])
			}
		} else if len(cmd.Paths) != 2 {
			return ErrTwoPaths
		}
	default:
		if len(cmd.Paths) > 0 {
			return fmt.Errorf("%w: %s takes no paths, got %q", ErrUnexpectedArg, cmd.Subcommand, cmd.Paths[0])
		}
	}
	return nil
}
