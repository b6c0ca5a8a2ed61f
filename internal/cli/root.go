package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NewRootCommand builds the `wfengine` Cobra command tree. Flags are
// layered over environment variables (WFENGINE_* prefix) and an
// optional config file via Viper, flags > env > file > default, matching
// the precedence order the corpus's cobra/viper CLIs use (SPEC_FULL.md
// §4.7, grounded on 88lin-divinesense's cmd/divinesense/main.go).
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "wfengine",
		Short:         "Run a resource-constrained task DAG to completion.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var cfg Config
	v := viper.New()
	v.SetEnvPrefix("WFENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Load a graph file and run it to completion",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return invalidf("reading config file: %v", err)
				}
			}
			bindFlags(cmd, v)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := RunGraph(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printStatuses(cmd, result)
			return nil
		},
	}

	flags := runCmd.Flags()
	flags.StringVar(&cfg.GraphPath, "graph", "", "path to the JSON graph file")
	flags.Float64Var(&cfg.Cores, "cores", 1, "total schedulable cores")
	flags.StringVar(&cfg.Memory, "memory", "0", "total schedulable memory (e.g. 2gb)")
	flags.StringVar(&cfg.DiskMemory, "disk-memory", "0", "total schedulable disk-memory (e.g. 10gb)")
	flags.DurationVar(&cfg.PollInterval, "poll-interval", 50*time.Millisecond, "tick sleep between scheduler passes")
	flags.DurationVar(&cfg.Timeout, "timeout", 0, "deadline for the whole run (0 = no deadline)")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "debug|info|warn|error")
	flags.String("config", "", "optional config file (yaml/json/toml)")

	root.AddCommand(runCmd)
	return root
}

// bindFlags copies every Viper-resolved value (env var or config file)
// onto a flag that the user didn't pass explicitly on the command line,
// preserving flags > env > file > default precedence.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = cmd.Flags().Set(f.Name, v.GetString(f.Name))
		}
	})
}

func printStatuses(cmd *cobra.Command, result RunResult) {
	names := make([]string, 0, len(result.Statuses))
	for name := range result.Statuses {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, result.Statuses[name])
	}
}
