package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Rhuann-Nunes/jarvis-bot/assistant"
	"github.com/Rhuann-Nunes/jarvis-bot/directory"
	"github.com/Rhuann-Nunes/jarvis-bot/internal/logutil"
	"github.com/Rhuann-Nunes/jarvis-bot/internal/retryutil"
	"github.com/Rhuann-Nunes/jarvis-bot/internal/webstatus"
	"github.com/Rhuann-Nunes/jarvis-bot/router"
	"github.com/Rhuann-Nunes/jarvis-bot/session"
	"github.com/Rhuann-Nunes/jarvis-bot/supabase"
	"github.com/Rhuann-Nunes/jarvis-bot/taskwatch"
	"github.com/Rhuann-Nunes/jarvis-bot/whatsapp"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot: receive messages, keep sessions, watch due tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Optional .env next to the binary, same contract as the
			// hosted deployments.
			_ = godotenv.Load()

			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			sb, err := supabase.NewClient(
				viper.GetString("supabase.url"),
				viper.GetString("supabase.anon_key"),
				supabase.Options{},
			)
			if err != nil {
				return err
			}
			resolver := directory.NewResolver(sb)

			api, err := assistant.NewHTTPClient(viper.GetString("assistant.url"), assistant.HTTPClientOptions{
				RetrievalK: viper.GetInt("assistant.retrieval_k"),
			})
			if err != nil {
				return err
			}

			gateway, err := whatsapp.NewGateway(
				viper.GetString("gateway.url"),
				viper.GetString("gateway.token"),
				whatsapp.GatewayOptions{},
			)
			if err != nil {
				return err
			}

			store := session.NewStore(api, session.StoreOptions{Logger: logger})

			poller := taskwatch.NewPoller(sb, resolver, gateway, taskwatch.PollerOptions{
				Logger:      logger,
				LeadTime:    viper.GetDuration("watcher.lead_time"),
				NotifiedCap: viper.GetInt("watcher.notified_cap"),
			})

			templates := router.DefaultTemplates()
			if path := strings.TrimSpace(viper.GetString("router.templates_path")); path != "" {
				templates, err = router.LoadTemplates(path)
				if err != nil {
					return err
				}
			}
			rt := router.New(resolver, store, gateway, router.Options{
				Typing:    gateway,
				Logger:    logger,
				Templates: &templates,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			statusAddr := net.JoinHostPort(
				viper.GetString("server.bind"),
				strconv.Itoa(viper.GetInt("server.port")),
			)
			statusSrv := &http.Server{
				Addr: statusAddr,
				Handler: webstatus.NewHandler(webstatus.Stats{
					Sessions:     store.Len,
					NotifiedSize: poller.NotifiedLen,
					LastTick:     poller.LastTick,
				}),
			}
			go func() {
				logger.Info("status_server_started", "addr", statusAddr)
				if err := statusSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("status_server_failed", "error", err.Error())
				}
			}()

			go store.Run(ctx, viper.GetDuration("session.sweep_interval"), viper.GetDuration("session.timeout"))
			go poller.Run(ctx, viper.GetDuration("watcher.interval"))

			logger.Info("bot_started")
			err = receiveLoop(ctx, logger, gateway, rt, viper.GetDuration("gateway.poll_timeout"))

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = statusSrv.Shutdown(shutdownCtx)
			logger.Info("bot_stopped")

			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("receive loop: %w", err)
			}
			return nil
		},
	}
	return cmd
}

// receiveLoop long-polls the gateway and hands each message to the router.
// Poll failures back off and reconnect; only context cancellation ends the
// loop.
func receiveLoop(ctx context.Context, logger *slog.Logger, gw *whatsapp.Gateway, rt *router.Router, pollTimeout time.Duration) error {
	backoff := retryutil.NewBackoff(2*time.Second, time.Minute)
	cursor := ""
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msgs, next, err := gw.Receive(ctx, cursor, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("gateway_poll_failed", "error", err.Error(), "retry_in", backoff.Delay().String())
			if werr := backoff.Wait(ctx); werr != nil {
				return werr
			}
			continue
		}
		backoff.Reset()
		cursor = next

		for _, msg := range msgs {
			if err := rt.Handle(ctx, msg); err != nil {
				logger.Warn("router_reply_failed", "from", msg.From, "error", err.Error())
			}
		}
	}
}
