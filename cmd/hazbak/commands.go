// Package hazbak assembles the command line interface.
package hazbak

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hazbak/hazbak/internal/version"
	"github.com/hazbak/hazbak/pkg/config"
	"github.com/hazbak/hazbak/pkg/core"
	"github.com/hazbak/hazbak/pkg/differ"
	"github.com/hazbak/hazbak/pkg/filesystem"
	"github.com/hazbak/hazbak/pkg/logging"
	"github.com/hazbak/hazbak/pkg/manifest"
	"github.com/hazbak/hazbak/pkg/paths"
	"github.com/hazbak/hazbak/pkg/scanner"
	"github.com/hazbak/hazbak/pkg/style"
	"github.com/hazbak/hazbak/pkg/syncer"
	"github.com/hazbak/hazbak/pkg/types"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity  int
		configFile string
	)

	rootCmd := &cobra.Command{
		Use:     "hazbak",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", MsgFlagConfig)

	rootCmd.AddCommand(newRunCmd(&configFile))
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newDiffCmd(&configFile))
	rootCmd.AddCommand(newSyncCmd(&configFile))
	rootCmd.AddCommand(newGenConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// loadConfig resolves the effective configuration, honoring --config.
func loadConfig(configFile string) (*config.Config, *paths.Paths, error) {
	p, err := paths.New()
	if err != nil {
		return nil, nil, err
	}
	if configFile != "" {
		cfg, err := config.LoadFromFile(configFile)
		return cfg, p, err
	}
	cfg, err := config.Load(p)
	return cfg, p, err
}

func newRunCmd(configFile *string) *cobra.Command {
	var (
		dryRun  bool
		runSync bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: MsgRunShort,
		Long:  MsgRunLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			if len(cfg.Mappings) == 0 {
				return fmt.Errorf(MsgErrNoMappings)
			}

			interactive := style.ColorsEnabled()
			opts := core.RunOptions{
				Config: cfg,
				Paths:  p,
				DryRun: dryRun,
				Sync:   runSync,
			}
			if interactive {
				opts.OnMapping = func(m types.StorageMapping) {
					pterm.Info.Printfln("Backing up %s", m.String())
				}
			}

			result, err := core.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			fmt.Print(style.RenderSummary(result, !interactive))

			if _, failed, _, _, _ := result.Totals(); failed > 0 {
				return fmt.Errorf(MsgErrFilesFailed, failed, p.FailureLogPath())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)
	cmd.Flags().BoolVar(&runSync, "sync", false, MsgFlagSync)
	return cmd
}

func newScanCmd() *cobra.Command {
	var noHash bool

	cmd := &cobra.Command{
		Use:   "scan SOURCE",
		Short: MsgScanShort,
		Long:  MsgScanLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := scanner.New(filesystem.NewOS()).Scan(cmd.Context(), args[0], scanner.Options{
				Hash: !noHash,
			})
			if err != nil {
				return err
			}

			var total int64
			for _, rec := range result.Records {
				total += rec.Size
			}
			fmt.Printf("%s: %d files, %d bytes\n", result.Root, result.Len(), total)
			for _, w := range result.Warnings {
				fmt.Printf("  ! unreadable: %s (%v)\n", w.Path, w.Err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noHash, "no-hash", false, MsgFlagNoHash)
	return cmd
}

func newDiffCmd(configFile *string) *cobra.Command {
	var noHash bool

	cmd := &cobra.Command{
		Use:   "diff",
		Short: MsgDiffShort,
		Long:  MsgDiffLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			if len(cfg.Mappings) == 0 {
				return fmt.Errorf(MsgErrNoMappings)
			}

			fs := filesystem.NewOS()
			store := manifest.NewStore(fs, p)

			for _, mapping := range cfg.Mappings {
				fmt.Printf("%s\n", mapping.String())

				scan, err := scanner.New(fs).Scan(cmd.Context(), mapping.Source, scanner.Options{
					Hash:    !noHash,
					Workers: cfg.Backup.Workers,
				})
				if err != nil {
					fmt.Printf("  ! %v\n", err)
					continue
				}

				prior, err := store.Load(mapping.Source)
				if err != nil {
					fmt.Printf("  ! %v\n", err)
					continue
				}

				diff, err := differ.Diff(scan, prior, differ.Options{
					AllowWeakCompare: cfg.Backup.AllowWeakCompare,
				})
				if err != nil {
					fmt.Printf("  ! %v\n", err)
					continue
				}

				for _, rel := range diff.Added {
					fmt.Printf("  + %s\n", rel)
				}
				for _, rel := range diff.Modified {
					fmt.Printf("  ~ %s\n", rel)
				}
				for _, rel := range diff.Deleted {
					fmt.Printf("  - %s\n", rel)
				}
				fmt.Printf("  %d unchanged, %d to copy, %d deleted\n",
					len(diff.Unchanged), len(diff.Changed()), len(diff.Deleted))
				if diff.Weak {
					fmt.Println("  (weak comparison: size and mtime only)")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noHash, "no-hash", false, MsgFlagNoHash)
	return cmd
}

func newSyncCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: MsgSyncShort,
		Long:  MsgSyncLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			if len(cfg.PreOps) == 0 {
				fmt.Println("No pre-processing operations configured.")
				return nil
			}

			sync := syncer.NewRclone(syncer.Options{
				BandwidthLimit: cfg.Sync.BandwidthLimit,
			})
			var failed int
			for _, op := range cfg.PreOps {
				if err := sync.Run(cmd.Context(), op); err != nil {
					fmt.Fprintf(os.Stderr, "! %s: %v\n", op.Operation, err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d pre-processing operation(s) failed", failed)
			}
			return nil
		},
	}
}

func newGenConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-config",
		Short: MsgGenConfigShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(config.GetDefaultConfigContent())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hazbak version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     MsgCompletionShort,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
