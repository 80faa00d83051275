package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/cabinetctl/cabinet/config"
	"github.com/cabinetctl/cabinet/editor"
	"github.com/cabinetctl/cabinet/logbook"
	"github.com/cabinetctl/cabinet/mail"
	"github.com/cabinetctl/cabinet/store"
	"github.com/cabinetctl/cabinet/ui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	app := NewApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func NewApp() *cli.App {
	return &cli.App{
		Name:    "cabinet",
		Usage:   "personal key-path store, tagged file log, and mail sender",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		Commands: []*cli.Command{
			getCommand(),
			putCommand(),
			removeCommand(),
			exportCommand(),
			logCommand(),
			logsCommand(),
			configCommand(),
			editCommand(),
			mailCommand(),
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "read a value by key path",
		ArgsUsage: "<key> [key...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "bypass the cache and re-fetch from the backing store",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("key path required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer()

			if c.Bool("refresh") {
				if err := s.Refresh(); err != nil {
					return err
				}
			}

			value, err := s.Get(c.Args().Slice()...)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					fmt.Println("None")
					return nil
				}
				return err
			}
			return printValue(value)
		},
	}
}

func putCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "set a value by key path (last argument is the value)",
		ArgsUsage: "<key> [key...] <value>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("key path and value required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer()

			args := c.Args().Slice()
			keys := args[:len(args)-1]
			value := parseValue(args[len(args)-1])

			if err := s.Put(value, keys...); err != nil {
				return err
			}
			fmt.Printf("%s set to %v\n", strings.Join(keys, " -> "), value)
			return nil
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "remove a value by key path",
		ArgsUsage: "<key> [key...]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("key path required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer()

			return s.Remove(c.Args().Slice()...)
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "dump the whole document as indented JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write to a file instead of stdout",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer()

			out := os.Stdout
			if path := c.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return s.Export(out)
		},
	}
}

func logCommand() *cli.Command {
	return &cli.Command{
		Name:      "log",
		Usage:     "append a message to the daily (or a named) log",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "debug, info, warn, error, or critical",
			},
			&cli.StringSliceFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "tag the record (repeatable)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "named log file instead of the daily rotation",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "directory override for the log file",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "do not echo the line to the console",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("message required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer()

			level, ok := logbook.ParseLevel(c.String("level"))
			if !ok {
				return fmt.Errorf("invalid log level: %s", c.String("level"))
			}

			w := logbook.NewWriter(logConfig(cfg, s))
			return w.Write(strings.Join(c.Args().Slice(), " "), logbook.WriteOptions{
				Level:   level,
				Tags:    c.StringSlice("tag"),
				LogName: c.String("name"),
				Dir:     c.String("dir"),
				Quiet:   c.Bool("quiet"),
			})
		},
	}
}

func logsCommand() *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "query a log file by tags, level, message, path, host, or date",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "match records carrying any of these tags",
			},
			&cli.StringFlag{
				Name:    "level",
				Aliases: []string{"l"},
				Usage:   "exact level match",
			},
			&cli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "case-insensitive message substring",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "case-insensitive source path substring",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "case-insensitive hostname match",
			},
			&cli.StringFlag{
				Name:  "date",
				Usage: "calendar date (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "log file to query (default: today's daily log)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer()

			criteria := logbook.Criteria{
				Tags:    c.StringSlice("tag"),
				Message: c.String("message"),
				Path:    c.String("path"),
				Host:    c.String("host"),
			}
			if levelStr := c.String("level"); levelStr != "" {
				level, ok := logbook.ParseLevel(levelStr)
				if !ok {
					return fmt.Errorf("invalid log level: %s", levelStr)
				}
				criteria.Level = level
			}
			if dateStr := c.String("date"); dateStr != "" {
				date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
				if err != nil {
					return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateStr)
				}
				criteria.Date = date
			}

			engine := logbook.NewEngine(logConfig(cfg, s))
			records, err := engine.Query(c.String("file"), criteria)
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Println(logbook.FormatLine(rec))
			}
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "interactive configuration wizard",
		Action: func(c *cli.Context) error {
			return runConfigWizard()
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "open a file (or the settings document) in the configured editor",
		ArgsUsage: "[file or shortcut]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-create",
				Usage: "do not create the file if it does not exist",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer()

			path := c.Args().First()
			if path == "" {
				path = filepath.Join(cfg.DataDir, "settings.json")
			}

			e := editor.New(cfg.Editor, s)
			changed, err := e.Open(path, !c.Bool("no-create"))
			if err != nil {
				return err
			}
			if !changed {
				fmt.Println("No changes.")
			}
			return nil
		},
	}
}

func mailCommand() *cli.Command {
	return &cli.Command{
		Name:  "mail",
		Usage: "send an email using the stored SMTP settings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "subject",
				Aliases:  []string{"s"},
				Required: true,
				Usage:    "email subject",
			},
			&cli.StringFlag{
				Name:     "body",
				Aliases:  []string{"b"},
				Required: true,
				Usage:    "email body (HTML allowed)",
			},
			&cli.StringFlag{
				Name:    "to",
				Aliases: []string{"t"},
				Usage:   "comma-separated recipients (default: email -> to)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s, closer, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closer()

			var to []string
			if raw := c.String("to"); raw != "" {
				for _, addr := range strings.Split(raw, ",") {
					if addr = strings.TrimSpace(addr); addr != "" {
						to = append(to, addr)
					}
				}
			}

			sender, err := mail.NewSender(s, logbook.NewWriter(logConfig(cfg, s)))
			if err != nil {
				return err
			}
			return sender.Send(c.String("subject"), c.String("body"), to)
		},
	}
}

// openStore builds the configured backend with the read-through cache in
// front. The returned closer releases the sqlite handle when one is open.
func openStore(cfg *config.Config) (*store.Cached, func() error, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		doc, err := store.OpenDoc(cfg.SQLitePath(), cfg.Collection)
		if err != nil {
			return nil, nil, err
		}
		return store.NewCached(doc, store.DefaultTTL), doc.Close, nil
	default:
		js, err := store.OpenJSON(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		if js.RecoveredBackup != "" {
			fmt.Fprintf(os.Stderr, "Warning: settings.json was not valid JSON; backed up to %s\n", js.RecoveredBackup)
		}
		return store.NewCached(js, store.DefaultTTL), func() error { return nil }, nil
	}
}

// logConfig resolves the log root, honoring a path -> log override in the
// store the way the settings document always has.
func logConfig(cfg *config.Config, s store.Store) *logbook.Config {
	root := cfg.LogDir
	if value, err := s.Get("path", "log"); err == nil {
		if override, ok := value.(string); ok && override != "" {
			root = override
		}
	}
	return &logbook.Config{
		Root:     root,
		Hostname: cfg.Hostname,
		Echo:     os.Stdout,
	}
}

func runConfigWizard() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dataDir, err := ui.Input("Where should cabinet store its data?", cfg.DataDir)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
		cfg.LogDir = filepath.Join(dataDir, "log")
	}

	backends := []string{config.BackendJSON, config.BackendSQLite}
	idx, err := ui.Select("How should cabinet store its data?", []string{
		"Local JSON file",
		"Local document database (sqlite)",
	})
	if err != nil {
		return err
	}
	if idx >= 0 {
		cfg.Backend = backends[idx]
	}

	editors := []string{"vim", "nvim", "nano", "emacs"}
	idx, err = ui.Select("Select your preferred editor", editors)
	if err != nil {
		return err
	}
	if idx >= 0 {
		cfg.Editor = editors[idx]
	}

	ok, err := ui.Confirm("Confirmation", fmt.Sprintf("Save configuration to %s?", config.Dir()))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("No changes were made.")
		return nil
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Updated configuration in %s\n", config.Dir())
	return nil
}

func printValue(value any) error {
	if s, ok := value.(string); ok {
		fmt.Println(s)
		return nil
	}
	data, err := json.MarshalIndent(value, "", "    ")
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// parseValue infers the type of a CLI-supplied value so that numbers and
// booleans are not stored as strings.
func parseValue(raw string) any {
	if raw == "null" {
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
	}
	return raw
}
