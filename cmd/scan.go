package cmd

import (
	"fmt"
	"strings"

	"github.com/openaudit/a11yscan/pkg/model"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Start, inspect, or cancel accessibility scans",
}

var (
	flagCompanyName string
	flagEmail       string
	flagMode        string
	flagScanners    []string
	flagTimeoutMs   int
	flagMaxPages    int
	flagMaxDepth    int
	flagAsync       bool
)

var scanStartCmd = &cobra.Command{
	Use:   "start <url>",
	Short: "Start a scan against a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := model.ScanRequest{
			URL:         args[0],
			CompanyName: flagCompanyName,
			Email:       flagEmail,
			Scanners:    parseScanners(flagScanners),
			TimeoutMs:   flagTimeoutMs,
			Mode:        model.ScanMode(flagMode),
			MaxPages:    flagMaxPages,
			MaxDepth:    flagMaxDepth,
		}

		a := getApp()
		scanID, err := a.orchestrator.StartScan(req)
		if err != nil {
			return fmt.Errorf("could not start scan: %w", err)
		}
		fmt.Println(scanID)

		if flagAsync {
			return nil
		}
		return watchScan(a, scanID)
	},
}

var scanStatusCmd = &cobra.Command{
	Use:   "status <scan-id>",
	Short: "Print the current lifecycle state of a scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := getApp().registry.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("phase=%s progress=%d%% message=%q\n", state.Phase, state.Progress, state.Message)
		if state.FailureReason != "" {
			fmt.Printf("failure_reason=%s\n", state.FailureReason)
		}
		if state.Result != nil {
			fmt.Printf("score=%d compliance=%s violations=%d\n",
				state.Result.Metrics.OverallScore, state.Result.Metrics.ComplianceLevel, len(state.Result.Violations))
		}
		return nil
	},
}

var scanCancelCmd = &cobra.Command{
	Use:   "cancel <scan-id>",
	Short: "Request cancellation of a running scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().orchestrator.CancelScan(args[0])
	},
}

var scanWatchCmd = &cobra.Command{
	Use:   "watch <scan-id>",
	Short: "Stream events for a scan until it reaches a terminal state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchScan(getApp(), args[0])
	},
}

func watchScan(a *app, scanID string) error {
	sub := a.bus.Subscribe(scanID, 0)
	defer sub.Close()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return nil
			}
			fmt.Printf("[%s] %s %+v\n", event.Timestamp.Format("15:04:05.000"), event.Type, event.Payload)
			if isTerminalEvent(event.Type) {
				return nil
			}
		case <-sub.Overrun:
			log.Warn().Str("scan", scanID).Msg("cmd: event stream overrun, stopping watch; use `scan status` to check progress")
			return nil
		}
	}
}

func isTerminalEvent(t model.EventType) bool {
	return t == model.EventScanCompleted || t == model.EventScanFailed || t == model.EventScanCancelled
}

func parseScanners(names []string) model.ScannerSelection {
	if len(names) == 0 {
		return model.ScannerSelection{Wave: true, Pa11y: true, Axe: true, Lighthouse: true}
	}
	var sel model.ScannerSelection
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "wave":
			sel.Wave = true
		case "pa11y":
			sel.Pa11y = true
		case "axe":
			sel.Axe = true
		case "lighthouse":
			sel.Lighthouse = true
		}
	}
	return sel
}

func init() {
	scanStartCmd.Flags().StringVar(&flagCompanyName, "company", "", "company name being scanned (required)")
	scanStartCmd.Flags().StringVar(&flagEmail, "email", "", "contact email for the scan report (required)")
	scanStartCmd.Flags().StringVar(&flagMode, "mode", string(model.ModeReal), "real or simulate")
	scanStartCmd.Flags().StringSliceVar(&flagScanners, "scanners", nil, "comma-separated scanner list (default: all)")
	scanStartCmd.Flags().IntVar(&flagTimeoutMs, "timeout-ms", 30000, "per-scanner timeout in milliseconds")
	scanStartCmd.Flags().IntVar(&flagMaxPages, "max-pages", 25, "maximum pages to discover and scan")
	scanStartCmd.Flags().IntVar(&flagMaxDepth, "max-depth", 3, "maximum crawl depth from the seed URL")
	scanStartCmd.Flags().BoolVar(&flagAsync, "async", false, "return immediately instead of watching to completion")

	scanCmd.AddCommand(scanStartCmd, scanStatusCmd, scanCancelCmd, scanWatchCmd)
}
