package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/localaid/localaid/internal/config"
	"github.com/localaid/localaid/internal/domain/entry"
	"github.com/localaid/localaid/internal/extract"
	logpkg "github.com/localaid/localaid/internal/logger"
	"github.com/localaid/localaid/internal/repository/spotlight"
	"github.com/localaid/localaid/internal/repository/walker"
	browseuc "github.com/localaid/localaid/internal/usecase/browse"
	searchuc "github.com/localaid/localaid/internal/usecase/search"
	"github.com/localaid/localaid/internal/version"
)

// services bundles what the subcommands need.
type services struct {
	search *searchuc.Service
	browse *browseuc.Service
	logger *zap.Logger
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "lfind",
		Usage:   "Find and read local files",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "Environment whose config/<env>.yaml is loaded",
				Value: config.GetEnv(),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Explicit configuration file path",
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "Override the search root",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			searchCommand(),
			listCommand(),
			catCommand(),
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search files by name, extension or content:term",
		ArgsUsage: "<query...>",
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, err := buildServices(c)
			if err != nil {
				return err
			}
			defer func() { _ = svc.logger.Sync() }()

			raw := strings.Join(c.Args().Slice(), " ")
			out, err := svc.search.Search(logpkg.ContextWithLogger(ctx, svc.logger), raw)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if len(out.Results) == 0 {
				fmt.Fprintln(c.Root().Writer, "No results found")
				return nil
			}
			for _, r := range out.Results {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\n", kindTag(r.Kind), r.Path)
			}
			fmt.Fprintf(c.Root().ErrWriter, "%d results (%s)\n", len(out.Results), out.Source)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List a directory",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, c *cli.Command) error {
			path, err := singleArg(c)
			if err != nil {
				return err
			}
			svc, err := buildServices(c)
			if err != nil {
				return err
			}

			items, err := svc.browse.List(logpkg.ContextWithLogger(ctx, svc.logger), path)
			if err != nil {
				return fmt.Errorf("ls: %w", err)
			}
			for _, it := range items {
				name := it.Name
				if it.Kind == entry.Directory {
					name += "/"
				}
				fmt.Fprintln(c.Root().Writer, name)
			}
			return nil
		},
	}
}

func catCommand() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "Print the extracted text of a file",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, c *cli.Command) error {
			path, err := singleArg(c)
			if err != nil {
				return err
			}
			svc, err := buildServices(c)
			if err != nil {
				return err
			}

			content, err := svc.browse.Preview(logpkg.ContextWithLogger(ctx, svc.logger), path)
			if err != nil {
				return fmt.Errorf("cat: %w", err)
			}
			fmt.Fprintln(c.Root().Writer, content.Text)
			if content.Truncated {
				fmt.Fprintf(c.Root().ErrWriter, "%s: output truncated\n", content.Filename)
			}
			return nil
		},
	}
}

func singleArg(c *cli.Command) (string, error) {
	if c.Args().Len() != 1 {
		return "", errors.New("expected exactly one path argument")
	}
	return c.Args().First(), nil
}

func kindTag(k entry.Kind) string {
	if k == entry.Directory {
		return "d"
	}
	return "f"
}

// buildServices loads the configuration selected by the root flags and
// wires the search and browse services.
func buildServices(c *cli.Command) (*services, error) {
	root := c.Root()
	env := root.String("env")

	var (
		cfg config.Config
		err error
	)
	if path := root.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if override := root.String("root"); override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return nil, fmt.Errorf("resolve root: %w", err)
		}
		cfg.Search.Root = abs
	}

	level := "warn"
	if root.Bool("debug") {
		level = "debug"
	}
	logger, err := logpkg.NewLogger(env, level, "lfind")
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	extractor := extract.New(extract.Config{
		AttachmentLimit:   cfg.Extract.AttachmentLimit,
		PreviewReadLimit:  cfg.Extract.PreviewReadLimit,
		PreviewLimit:      cfg.Extract.PreviewLimit,
		ContentMatchLimit: cfg.Extract.ContentMatchLimit,
	}, logger)

	index := spotlight.New(spotlight.ExecRunner{}, spotlight.Config{
		Tool:       cfg.Search.IndexTool,
		Root:       cfg.Search.Root,
		Timeout:    cfg.Search.IndexTimeout(),
		MaxResults: cfg.Search.MaxResults,
	})
	walk := walker.New(walker.Config{
		Root:       cfg.Search.Root,
		SkipDirs:   cfg.Search.SkipDirs,
		MaxResults: cfg.Search.MaxResults,
	}, extractor)

	return &services{
		search: searchuc.New(index, walk, cfg.Search.MaxResults),
		browse: browseuc.New(extractor),
		logger: logger,
	}, nil
}
