// SPDX-License-Identifier: GPL-3.0-or-later

// Command fqdns resolves domains through a possibly-forging network
// path and discovers the wrong answers the forger injects.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/fqrouter/fqdns"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "fqdns",
		Usage: "censorship-resistant DNS resolution",
		Commands: []*cli.Command{
			newResolveCommand(),
			newDiscoverCommand(),
			newServeCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		color.Red("fqdns: %s", err)
		os.Exit(1)
	}
}

// strategyNames joins the supported strategy names for the flag usage string.
func strategyNames() string {
	names := make([]string, 0, len(fqdns.Strategies))
	for _, s := range fqdns.Strategies {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// newResolver builds a resolver from the flags shared by resolve and discover.
func newResolver(cctx *cli.Context) *fqdns.Resolver {
	reso := fqdns.NewResolver()
	reso.Timeout = time.Duration(cctx.Float64("timeout") * float64(time.Second))
	if cctx.Bool("verbose") {
		reso.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return reso
}

func newResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "resolve a domain's A records",
		ArgsUsage: "DOMAIN",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "at",
				Usage: "dns server as host[:port]",
				Value: "8.8.8.8:53",
			},
			&cli.StringFlag{
				Name:  "server-type",
				Usage: "udp or tcp",
				Value: "udp",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "response selection strategy: " + strategyNames(),
				Value: string(fqdns.StrategyPickFirst),
			},
			&cli.StringSliceFlag{
				Name:  "wrong-answer",
				Usage: "address known to be forged (repeatable)",
			},
			&cli.Float64Flag{
				Name:  "timeout",
				Usage: "collection window in seconds",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log progress to stderr",
			},
		},
		Action: resolveAction,
	}
}

func resolveAction(cctx *cli.Context) error {
	if cctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one domain, got %d", cctx.NArg())
	}
	reso := newResolver(cctx)
	wrong := fqdns.NewWrongAnswers(cctx.StringSlice("wrong-answer")...)
	result, err := reso.Resolve(
		cctx.Context,
		cctx.Args().First(),
		fqdns.ServerType(cctx.String("server-type")),
		cctx.String("at"),
		fqdns.Strategy(cctx.String("strategy")),
		wrong,
	)
	if err != nil {
		return err
	}
	for _, addr := range result.Addrs {
		fmt.Println(addr)
	}
	for _, addrs := range result.Multi {
		fmt.Println(strings.Join(addrs, " "))
	}
	return nil
}

func newDiscoverCommand() *cli.Command {
	return &cli.Command{
		Name:      "discover",
		Usage:     "resolve blocked domains to discover forged answers",
		ArgsUsage: "DOMAIN [DOMAIN...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "at",
				Usage: "dns server as host[:port]",
				Value: "8.8.8.8:53",
			},
			&cli.Float64Flag{
				Name:  "timeout",
				Usage: "per-domain collection window in seconds",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log progress to stderr",
			},
		},
		Action: discoverAction,
	}
}

func discoverAction(cctx *cli.Context) error {
	if cctx.NArg() < 1 {
		return fmt.Errorf("expected at least one blocked domain")
	}
	reso := newResolver(cctx)
	wrong, err := reso.Discover(cctx.Context, cctx.Args().Slice(), cctx.String("at"))
	if err != nil {
		return err
	}
	for _, addr := range wrong.Addrs() {
		fmt.Println(addr)
	}
	return nil
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start as dns server",
		Action: func(cctx *cli.Context) error {
			// TODO(fqrouter): design the serving mode on top of the
			// collector before exposing it here.
			return cli.Exit("serve: not implemented", 1)
		},
	}
}
