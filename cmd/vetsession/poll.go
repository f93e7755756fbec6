package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	vetsession "github.com/MrEthical07/vetsession"
	promexport "github.com/MrEthical07/vetsession/metrics/export/prometheus"
	"github.com/MrEthical07/vetsession/notify"
	"github.com/MrEthical07/vetsession/storage"
)

func newPollCmd(c *cli) *cobra.Command {
	var (
		token string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Fetch actionable notifications for a credential",
		Long: `Log in with the given credential and fetch the actionable notification feed.

With --watch the refresh scheduler keeps running until interrupted, printing
the feed whenever its unread count changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.runPoll(ctx, cmd.OutOrStdout(), token, watch)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer credential (default: $VETSESSION_TOKEN)")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep polling until interrupted")
	return cmd
}

func (c *cli) runPoll(ctx context.Context, out io.Writer, token string, watch bool) error {
	cfg, err := loadConfig(c.v)
	if err != nil {
		return err
	}
	logger := c.logger()

	if token == "" {
		token = os.Getenv("VETSESSION_TOKEN")
	}
	baseURL := strings.TrimSpace(c.v.GetString("notify.base_url"))
	if baseURL == "" {
		return errors.New("notify.base_url is required")
	}

	b := vetsession.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithCookieStore(storage.NewMemoryCookies(cfg.Cookie.SecureTransport))
	if addr := c.v.GetString("redis.addr"); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: c.v.GetString("redis.password"),
			DB:       c.v.GetInt("redis.db"),
		})
		defer rdb.Close()
		b = b.WithRedis(rdb)
	} else {
		b = b.WithPrimaryStore(storage.NewMemoryKV())
	}

	engine, err := b.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	if token != "" {
		if _, err := engine.Login(ctx, token); err != nil && !errors.Is(err, vetsession.ErrStorageWrite) {
			return err
		}
	} else if !engine.Load(ctx).Authenticated() {
		return errors.New("no usable credential: pass --token or log in first")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(promexport.NewCollector(engine))

	source := &notify.HTTPSource{BaseURL: baseURL, Client: engine.HTTPClient(nil)}
	poller, scheduler := engine.NewNotifications(source, source, reg)

	if addr := c.v.GetString("metrics.addr"); addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", slog.String("error", err.Error()))
			}
		}()
		defer srv.Close()
	}

	if !watch {
		if err := poller.Refresh(ctx); err != nil {
			return err
		}
		printFeed(out, poller.Items(), time.Now())
		return nil
	}

	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	ticker := time.NewTicker(cfg.Notify.FlagInterval)
	defer ticker.Stop()
	lastUnread := -1
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := poller.UnreadCount(); n != lastUnread && !poller.LastRefresh().IsZero() {
				lastUnread = n
				printFeed(out, poller.Items(), time.Now())
			}
		}
	}
}

func printFeed(w io.Writer, items []notify.Item, now time.Time) {
	unread := 0
	for _, item := range items {
		if !item.Read {
			unread++
		}
	}
	fmt.Fprintf(w, "%d actionable, %d unread\n", len(items), unread)
	for _, item := range items {
		fmt.Fprintf(w, "  %-10s %-40s %-24s %s\n", item.Age(now), item.Title, item.PartyLabel, item.Ref)
	}
}
