/*
Package main wires the syllable graph, dictionaries, translators, metrics,
and IPC server or debug TUI into a runnable binary.

# Usage

Start the msgpack IPC server with a table (shape-code) schema:

	imecore -data dict.tsv -userdb user.db

Start the script (phonetic-spelling) schema, which additionally needs an
alphabet file naming the syllables the spellings in -data decode to:

	imecore -engine script -data dict.tsv -alphabet alphabet.tsv -userdb user.db

Run the interactive debug TUI instead of the server:

	imecore -data dict.tsv -c

# Configuration

Runtime behavior beyond what the flags above cover (completion, sentence
mode, delimiters, initial quality, and the rest) comes from a TOML config
file, auto-created with defaults on first run and reloadable without a
flag. See pkg/config for the full schema.

# Dictionary files

-data is a TSV file of "text\tcode\tweight[\tcustom_code[\tcomment]]" lines.
For the script engine, -alphabet is a newline-delimited list of the
syllables those codes are built from, in schema-author order; each line
gets assigned the next syllable id.
*/
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkwell-ime/imecore/internal/cli"
	"github.com/inkwell-ime/imecore/pkg/config"
	"github.com/inkwell-ime/imecore/pkg/dict"
	"github.com/inkwell-ime/imecore/pkg/poet"
	"github.com/inkwell-ime/imecore/pkg/prism"
	"github.com/inkwell-ime/imecore/pkg/server"
	"github.com/inkwell-ime/imecore/pkg/translate/script"
	"github.com/inkwell-ime/imecore/pkg/translate/table"
	"github.com/inkwell-ime/imecore/pkg/userdict"
)

const (
	Version = "0.1.0"
	AppName = "imecore"
	gh      = "https://github.com/inkwell-ime/imecore"
)

func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	dataPath := flag.String("data", "", "TSV dictionary file to load")
	alphabetPath := flag.String("alphabet", "", "Syllable alphabet file (script engine only)")
	userDBPath := flag.String("userdb", "user.db", "SQLite user dictionary path")
	engineName := flag.String("engine", "table", "Translator engine: 'script' or 'table'")
	cliMode := flag.Bool("c", false, "Run the interactive debug TUI instead of the IPC server")
	debugMode := flag.Bool("d", false, "Toggle debug logging")
	metricsAddr := flag.String("metrics", "", "Address to serve /metrics on (empty disables)")
	configPath := flag.String("config", "", "Path to config.toml (default: XDG config dir)")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	appConfig, resolvedConfigPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config: %s", resolvedConfigPath)

	p := prism.NewPatriciaPrism()
	d := dict.NewMemDictionary(p)

	if *alphabetPath != "" {
		lines, err := readLines(*alphabetPath)
		if err != nil {
			log.Fatalf("Failed to read alphabet file: %v", err)
		}
		if err := d.LoadAlphabetTSV(lines); err != nil {
			log.Fatalf("Failed to load alphabet: %v", err)
		}
	}

	if *dataPath != "" {
		lines, err := readLines(*dataPath)
		if err != nil {
			log.Fatalf("Failed to read dictionary file: %v", err)
		}
		if err := d.LoadTSV(lines); err != nil {
			log.Fatalf("Failed to load dictionary: %v", err)
		}
	} else {
		log.Warn("No dictionary file specified, running with an empty dict...")
	}

	store, err := userdict.NewSQLiteStore(*userDBPath)
	if err != nil {
		log.Fatalf("Failed to open user dictionary: %v", err)
	}
	ud := userdict.NewUserDict(store, p, d.Alphabet())
	encoder := userdict.NewUnityTableEncoder(store)

	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			log.Debugf("Serving metrics on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Errorf("Metrics server stopped: %v", err)
			}
		}()
	}

	engine, memorize := buildEngine(*engineName, appConfig, d, ud, encoder)

	showStartupInfo(*dataPath, *engineName)

	if *cliMode {
		if err := cli.Run(engine, memorize); err != nil {
			log.Fatalf("TUI error: %v", err)
		}
		return
	}

	srv := server.NewServer(engine, memorize)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildEngine wires either the script or table translator against the
// loaded dictionaries, returning it alongside a MemorizeFunc adapter fit to
// its Memorize signature.
func buildEngine(name string, cfg *config.Config, d *dict.MemDictionary, ud *userdict.UserDict, encoder userdict.UnityEncoder) (server.Engine, server.MemorizeFunc) {
	switch name {
	case "script":
		t := &script.Translator{
			Dict:             d,
			UserDict:         ud,
			Poet:             poet.WeightMaxPoet{},
			Delimiters:       cfg.Script.Delimiters,
			StrictSpelling:   cfg.Script.StrictSpelling,
			EnableCompletion: cfg.Script.EnableCompletion,
			EnableUserDict:   cfg.Script.EnableUserDict,
			InitialQuality:   cfg.Script.InitialQuality,
			SpellingHints:    cfg.Script.SpellingHints,
		}
		memorize := func(text string, elements []dict.DictEntry) error {
			commit := dict.DictEntry{Text: text}
			for _, e := range elements {
				commit.Code = append(commit.Code, e.Code...)
			}
			return t.Memorize(commit, elements)
		}
		return t, memorize

	default:
		t := &table.Translator{
			Dict:                   d,
			UserDict:               ud,
			Encoder:                encoder,
			Poet:                   poet.WeightMaxPoet{},
			Delimiters:             cfg.Table.Delimiters,
			EnableUserDict:         cfg.Table.EnableUserDict,
			EnableCompletion:       cfg.Table.EnableCompletion,
			EnableCharsetFilter:    cfg.Table.EnableCharsetFilter,
			EnableSentence:         cfg.Table.EnableSentence,
			SentenceOverCompletion: cfg.Table.SentenceOverCompletion,
			EnableEncoder:          cfg.Table.EnableEncoder,
			EncodeCommitHistory:    cfg.Table.EncodeCommitHistory,
			MaxPhraseLength:        cfg.Table.MaxPhraseLength,
			InitialQuality:         cfg.Table.InitialQuality,
		}
		return t, t.Memorize
	}
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
	})
	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ imecore ] syllabifier, script translator, table translator, user dictionary")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

func showStartupInfo(dataPath, engineName string) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("==========")
	println(" imecore ")
	println("==========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("Engine: %s", engineName)
	log.Infof("Dictionary: %s", dataPath)
	log.Info("status: ready")
	println("==========")

	log.SetLevel(currentLevel)
}
