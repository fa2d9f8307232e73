package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coindeck/internal/dashboard"
	"github.com/coindeck/internal/messaging"
	"github.com/coindeck/pkg/config"
	"github.com/coindeck/pkg/format"
	"github.com/coindeck/pkg/logger"
	"github.com/coindeck/pkg/models"
)

var (
	watchSortKey   string
	watchDirection string
	watchOnce      bool
	buyAmount      string
	buyAsset       string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render the live price deck in the terminal",
	Long: `Poll the gateway on a fixed cadence and render the top assets.

The deck refreshes every 10 seconds by default with a visible countdown
between refreshes. An optional one-shot simulated purchase exercises
the purchase form against the live snapshot; no real transaction takes
place.

Examples:
  coindeck watch                                 # default ordering (name, ascending)
  coindeck watch --sort price --direction desc   # most expensive first
  coindeck watch --buy-amount 25 --buy-asset BTC # simulate a $25 BTC purchase
  coindeck watch --once                          # single snapshot, then exit`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchSortKey, "sort", "none", "Sort key (name, symbol, price, none)")
	watchCmd.Flags().StringVar(&watchDirection, "direction", "asc", "Sort direction (asc, desc)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Print one snapshot and exit")
	watchCmd.Flags().StringVar(&buyAmount, "buy-amount", "", "Simulate a purchase of this USD amount")
	watchCmd.Flags().StringVar(&buyAsset, "buy-asset", "", "Asset symbol or id for the simulated purchase (defaults to the preferred asset)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	sortKey, sortDir, err := parseSortFlags(watchSortKey, watchDirection)
	if err != nil {
		return err
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("Note: .env file not loaded: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	// Terminal output and structured logs do not mix well on stdout.
	cfg.Logging.Output = "stderr"

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	var sink messaging.PurchaseSink
	if cfg.NATS.Enabled {
		nc, err := messaging.NewNATSClient(&cfg.NATS, log)
		if err != nil {
			log.WithError(err).Warn("NATS unavailable, purchases go to the log")
			sink = messaging.NewLogSink(log)
		} else {
			defer nc.Close()
			sink = nc
		}
	} else {
		sink = messaging.NewLogSink(log)
	}

	notifier := dashboard.NewNotifier(cfg.Dashboard.NotificationDelay)
	form := dashboard.NewForm(dashboard.Bounds{
		Min: cfg.Dashboard.MinPurchaseUSD,
		Max: cfg.Dashboard.MaxPurchaseUSD,
	}, sink, notifier, log)

	poller := dashboard.NewPoller(&cfg.Dashboard, log)
	poller.Start()
	defer poller.Stop()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	purchased := false

	for {
		select {
		case <-interrupt:
			return nil
		case <-ticker.C:
			state := poller.State()

			if state.Phase == dashboard.PhaseReady {
				form.AutoFill(poller.DefaultAssetID())

				if buyAmount != "" && !purchased {
					purchased = true
					simulatePurchase(form, state.Assets)
				}
			}

			render(state, notifier.Current(), sortKey, sortDir)

			if watchOnce && state.Phase != dashboard.PhaseLoading {
				return nil
			}
		}
	}
}

// simulatePurchase runs the one-shot purchase path from the flags.
func simulatePurchase(form *dashboard.Form, snapshot []models.Asset) {
	form.SetAmount(buyAmount)
	if id := resolveBuyAsset(snapshot, buyAsset); id != "" {
		form.SetAsset(id)
	}

	record, result := form.Submit(snapshot)
	if !result.Valid() {
		for field, msg := range result {
			fmt.Printf("  %s: %s\n", field, msg)
		}
		return
	}
	if record != nil {
		fmt.Printf("  order %s recorded\n", record.ID)
	}
}

// resolveBuyAsset maps a --buy-asset flag value (symbol or numeric id)
// to an asset id string. Empty when no match; the form's auto-filled
// default then applies.
func resolveBuyAsset(snapshot []models.Asset, flag string) string {
	if flag == "" {
		return ""
	}
	if _, err := strconv.ParseInt(flag, 10, 64); err == nil {
		return flag
	}
	for _, a := range snapshot {
		if strings.EqualFold(a.Symbol, flag) {
			return strconv.FormatInt(a.ID, 10)
		}
	}
	return ""
}

// parseSortFlags checks the --sort and --direction values before any
// polling starts, so a typo is a usage error instead of a silent
// fallback to the default ordering.
func parseSortFlags(key, direction string) (dashboard.SortKey, dashboard.SortDirection, error) {
	switch dashboard.SortKey(key) {
	case dashboard.SortByName, dashboard.SortBySymbol, dashboard.SortByPrice, dashboard.SortNone:
	default:
		return "", "", fmt.Errorf("invalid --sort value %q (want name, symbol, price, or none)", key)
	}
	switch dashboard.SortDirection(direction) {
	case dashboard.SortAsc, dashboard.SortDesc:
	default:
		return "", "", fmt.Errorf("invalid --direction value %q (want asc or desc)", direction)
	}
	return dashboard.SortKey(key), dashboard.SortDirection(direction), nil
}

// render prints one frame of the deck.
func render(state dashboard.PollState, note models.Notification, key dashboard.SortKey, dir dashboard.SortDirection) {
	switch state.Phase {
	case dashboard.PhaseLoading:
		fmt.Println("Loading prices...")
	case dashboard.PhaseError:
		fmt.Printf("Error: %s\n", state.ErrorMessage)
	case dashboard.PhaseReady:
		sorted := dashboard.Sort(state.Assets, key, dir)

		fmt.Printf("\n%-6s %-20s %-8s %s\n", "RANK", "NAME", "SYMBOL", "PRICE")
		for _, a := range sorted {
			fmt.Printf("%-6d %-20s %-8s %s\n", a.Rank, a.Name, a.Symbol, format.USD(a.PriceUSD))
		}
		fmt.Printf("next refresh in %ds\n", state.Countdown)
	}

	if note.Visible {
		fmt.Printf("[%s] %s\n", note.Kind, note.Text)
	}
}
