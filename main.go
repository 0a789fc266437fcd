package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"

	"redraw/internal/config"
	rnet "redraw/internal/net"
	"redraw/internal/relay"
	"redraw/internal/ui"
)

const browseTimeout = 3 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "redraw:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "redraw.toml", "path to the TOML config file")
		board      = flag.String("board", "", "board id to open")
		relayURL   = flag.String("relay", "", "relay websocket URL, e.g. ws://host:8080/ws")
		host       = flag.Bool("host", false, "run a relay in this process and share it on the LAN")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *board != "" {
		cfg.Board = *board
	}
	if *relayURL != "" {
		cfg.RelayURL = *relayURL
	}

	// A share link as the first argument joins the linked board.
	link := ""
	if args := flag.Args(); len(args) > 0 && strings.HasPrefix(args[0], config.Scheme+"://") {
		link = args[0]
		if cfg.RelayURL, cfg.Board, err = config.ParseShareLink(link); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	rnet.SetLogger(logger.With("component", "net"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := ui.Options{Config: cfg, Board: cfg.Board, Logger: logger}
	switch {
	case *host:
		share, err := startHost(ctx, &cfg, logger)
		if err != nil {
			return err
		}
		opts.Config, opts.ShareLink = cfg, share
	case link == "" && *relayURL == "" && cfg.MDNS && cfg.RelayURL == config.Default().RelayURL:
		found, err := rnet.Browse(ctx, browseTimeout)
		switch {
		case err == nil:
			logger.Info("found relay on the LAN", "relay", found)
			opts.Config.RelayURL = found
		case errors.Is(err, rnet.ErrNoRelay):
			logger.Info("no relay advertised, using default", "relay", cfg.RelayURL)
		default:
			logger.Warn("mdns browse failed", "err", err)
		}
	}

	logger.Info("starting", "board", opts.Board, "relay", opts.Config.RelayURL, "host", *host)
	return ui.Run(ctx, opts)
}

// startHost serves a relay on cfg.Port, advertises it over mDNS and points
// cfg at it. It returns the share link for the board.
func startHost(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, error) {
	log := logger.With("component", "relay")
	relayOpts := []relay.Option{relay.WithOrigin(cfg.Origin), relay.WithLogger(log)}
	if cfg.RedisURL != "" {
		bp, err := relay.NewRedisBackplane(ctx, cfg.RedisURL)
		if err != nil {
			return "", err
		}
		go func() {
			<-ctx.Done()
			bp.Close()
		}()
		relayOpts = append(relayOpts, relay.WithBackplane(bp))
	}

	srv := relay.New(ctx, relayOpts...)
	go func() {
		if err := srv.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Error("relay stopped", "err", err)
		}
	}()

	if cfg.MDNS {
		adv, err := rnet.Advertise(cfg.Port, cfg.Board)
		if err != nil {
			log.Warn("mdns advertise failed", "err", err)
		} else {
			go func() {
				<-ctx.Done()
				adv.Shutdown()
			}()
		}
	}

	cfg.RelayURL = fmt.Sprintf("ws://localhost:%d/ws", cfg.Port)
	share := config.ShareLink(rnet.OutgoingIP(), cfg.Port, cfg.Board)
	if err := clipboard.WriteAll(share); err != nil {
		log.Warn("could not copy share link", "err", err)
	} else {
		log.Info("share link copied to clipboard", "link", share)
	}
	return share, nil
}
