package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/openaudit/a11yscan/pkg/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect effective configuration",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := viper.AllSettings()
		out, err := yaml.Marshal(settings)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var configScannersCmd = &cobra.Command{
	Use:   "scanners",
	Short: "List the closed set of scanner adapters and their coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Scanner", "Requires API Key", "Latency", "WCAG Coverage"})

		kinds := make([]string, 0, len(model.AllScannerKinds))
		for _, k := range model.AllScannerKinds {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			d := model.Descriptors[model.ScannerKind(k)]
			table.Append([]string{
				k,
				strconv.FormatBool(d.RequiresAPIKey),
				string(d.Latency),
				strings.Join(d.WCAGCoverage, ", "),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	configCmd.AddCommand(configDumpCmd, configScannersCmd)
}
