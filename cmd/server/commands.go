package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/content"
	"github.com/dgallion1/docnav/internal/mcptools"
	"github.com/dgallion1/docnav/internal/metrics"
	"github.com/dgallion1/docnav/internal/navigation"
	"github.com/dgallion1/docnav/internal/routes"
	"github.com/dgallion1/docnav/internal/topics"
)

type RoutesCmd struct {
	Manifest string `help:"Manifest path. Defaults to MANIFEST_PATH." type:"path"`
	JSON     bool   `name:"json" help:"Print the nested route table as JSON"`
}

func (c *RoutesCmd) Run(g *Global) error {
	m, err := loadManifest(c.Manifest)
	if err != nil {
		return err
	}
	table := routes.FromManifest(m)
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	}
	for _, p := range routes.Paths(table) {
		fmt.Println("/" + p)
	}
	return nil
}

type CheckCmd struct {
	Manifest string `help:"Manifest path. Defaults to MANIFEST_PATH." type:"path"`
}

func (c *CheckCmd) Run(g *Global) error {
	cfg := config.Load()
	m, err := loadManifest(c.Manifest)
	if err != nil {
		return err
	}
	fetcher, closeFetcher := newFetcher(cfg, metrics.NoopRecorder{}, g.Logger)
	defer closeFetcher()

	locs := navigation.Locators(m)
	missing, err := content.Missing(context.Background(), fetcher, locs)
	if err != nil {
		return err
	}
	for _, loc := range missing {
		fmt.Println("missing: /" + loc.Path())
	}
	g.Logger.Info("manifest checked", "pages", len(locs), "missing", len(missing))
	if len(missing) > 0 {
		return fmt.Errorf("%d of %d pages have no document", len(missing), len(locs))
	}
	return nil
}

type MCPCmd struct {
	Manifest string `help:"Manifest path. Defaults to MANIFEST_PATH." type:"path"`
	URL      string `name:"url" help:"Initial page, e.g. v1/user-guide/overview"`
}

func (c *MCPCmd) Run(g *Global) error {
	// Stdout carries the protocol.
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: &g.Level}))

	cfg := config.Load()
	m, err := loadManifest(c.Manifest)
	if err != nil {
		return err
	}
	coord, err := navigation.NewCoordinator(m, navigation.Options{InitialURL: c.URL, Logger: log})
	if err != nil {
		return err
	}
	fetcher, closeFetcher := newFetcher(cfg, metrics.NoopRecorder{}, log)
	defer closeFetcher()

	s := mcptools.NewServer(mcptools.New(m, coord, fetcher, log), version)
	log.Info("serving mcp on stdio", "url", coord.Selection().URL())
	return server.ServeStdio(s)
}

func loadManifest(path string) (*topics.Manifest, error) {
	if path == "" {
		path = config.Load().ManifestPath
	}
	return topics.LoadManifest(path)
}
