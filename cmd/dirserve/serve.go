package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sagarc03/dirserve"
	"github.com/sagarc03/dirserve/config"
	"github.com/sagarc03/dirserve/credentials"
	"github.com/sagarc03/dirserve/filesystem"
	dirservehttp "github.com/sagarc03/dirserve/http"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	servePath, err := filepath.Abs(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("resolve serve path: %w", err)
	}

	info, err := os.Stat(servePath)
	if err != nil {
		return fmt.Errorf("stat serve path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("serve path is not a directory: %s", servePath)
	}

	root, err := os.OpenRoot(servePath)
	if err != nil {
		return fmt.Errorf("open serve root: %w", err)
	}
	defer func() { _ = root.Close() }()

	authSpec, err := credentials.Load(cfg.Auth.Config)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	var storeOpts []filesystem.Option
	if cfg.Listing.NoSymlinks {
		storeOpts = append(storeOpts, filesystem.WithoutSymlinks())
	}
	storage := filesystem.NewFileStorage(root, storeOpts...)

	service := dirserve.NewService(storage, dirserve.ServiceConfig{
		UploadsEnabled: cfg.Upload.Enabled,
		ShowHidden:     cfg.Listing.ShowHidden,
	})

	routePrefix := ""
	if cfg.Server.RandomRoute {
		routePrefix = "/" + randomRoute()
	}

	handlerConfig := dirservehttp.HandlerConfig{
		Auth:           authSpec,
		Realm:          cfg.Auth.Realm,
		UploadsEnabled: cfg.Upload.Enabled,
		MaxUploadSize:  cfg.Upload.MaxSize,
		Title:          cfg.Listing.Title,
		RoutePrefix:    routePrefix,
		CORS:           cfg.CORS,
	}
	router := dirservehttp.NewHandler(&handlerConfig, service).Router()

	slog.Info("serving directory",
		"path", servePath,
		"uploads", cfg.Upload.Enabled,
		"auth", authSpec.String(),
		"hidden", cfg.Listing.ShowHidden,
		"symlinks", !cfg.Listing.NoSymlinks,
	)

	g, gctx := errgroup.WithContext(ctx)
	servers := make([]*http.Server, 0, len(cfg.Server.Interfaces)+1)

	for _, addr := range listenAddrs(cfg.Server) {
		server := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second,
			IdleTimeout:       time.Duration(cfg.Server.IdleTimeout) * time.Second,
		}
		servers = append(servers, server)

		g.Go(func() error {
			slog.Info("starting server", "addr", addr, "url", displayURL(addr, routePrefix))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error on %s: %w", addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		for _, server := range servers {
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("server shutdown error", "addr", server.Addr, "err", err)
			}
		}
		return nil
	})

	return g.Wait()
}

func listenAddrs(cfg config.ServerConfig) []string {
	port := strconv.Itoa(cfg.Port)
	if len(cfg.Interfaces) == 0 {
		return []string{":" + port}
	}

	addrs := make([]string, 0, len(cfg.Interfaces))
	for _, ip := range cfg.Interfaces {
		addrs = append(addrs, net.JoinHostPort(ip, port))
	}
	return addrs
}

func displayURL(addr, routePrefix string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + routePrefix
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + routePrefix + "/"
}

func randomRoute() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
