// Package cli provides the command line interface.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/lx/internal/commands"
	"github.com/temirov/lx/internal/config"
	"github.com/temirov/lx/internal/gitstatus"
	"github.com/temirov/lx/internal/output"
	"github.com/temirov/lx/internal/services/clipboard"
	"github.com/temirov/lx/internal/types"
)

const (
	longFlagName           = "long"
	longFlagShorthand      = "l"
	treeFlagName           = "tree"
	treeFlagShorthand      = "t"
	depthFlagName          = "depth"
	allFlagName            = "all"
	allFlagShorthand       = "a"
	gitFlagName            = "git"
	calculateSizesFlagName = "calculate-sizes"
	formatFlagName         = "format"
	exclusionFlagName      = "e"
	noGitignoreFlagName    = "no-gitignore"
	noIgnoreFlagName       = "no-ignore"
	colorFlagName          = "color"
	copyFlagName           = "copy"
	concurrencyFlagName    = "concurrency"
	configFlagName         = "config"
	verboseFlagName        = "verbose"
	versionFlagName        = "version"
	globalFlagName         = "global"
	forceFlagName          = "force"

	longFlagDescription             = "use the long listing format"
	treeFlagDescription             = "display entries as a tree"
	depthFlagDescription            = "maximum tree depth (requires --tree)"
	allFlagDescription              = "show hidden and ignored entries"
	gitFlagDescription              = "show version-control status"
	calculateSizesFlagDescription   = "calculate recursive directory sizes (requires --long)"
	formatFlagDescription           = "output format: raw, json or yaml"
	exclusionFlagDescription        = "exclude path pattern (repeatable)"
	disableGitignoreFlagDescription = "do not use .gitignore files"
	disableIgnoreFlagDescription    = "do not use .ignore files"
	colorFlagDescription            = "colorize output: auto, always or never"
	copyFlagDescription             = "copy the rendered listing to the clipboard"
	concurrencyFlagDescription      = "maximum number of directories listed in parallel"
	configFlagDescription           = "configuration file to use instead of ./.lx.yaml"
	verboseFlagDescription          = "enable debug logging"
	versionFlagDescription          = "display application version"
	globalFlagDescription           = "write the global configuration instead of the local one"
	forceFlagDescription            = "overwrite an existing configuration file"

	defaultPath          = "."
	rootUse              = "lx [path]"
	rootShortDescription = "list directory contents with ignore rules, status and sizes"
	rootLongDescription  = `lx lists a directory as a flat listing or a tree.
Entries matched by .gitignore or .ignore files, and hidden entries, are left out unless --all is given.
Use --git to show version-control status, --long for permissions, owners, sizes and times,
and --format to select raw, json or yaml output.`
	rootUsageExample = `  # Tree of the current directory, two levels deep, with status
  lx --tree --depth 2 --git

  # Long listing with recursive directory sizes
  lx -l --calculate-sizes ./src

  # Machine-readable tree
  lx -t --format json`
	initUse              = "init"
	initShortDescription = "write a default configuration file"

	versionTemplate              = "lx version: %s\n"
	initWrittenTemplate          = "configuration written to %s\n"
	invalidFormatMessage         = "invalid format value %q"
	invalidDepthMessage          = "invalid depth %d: must not be negative"
	depthRequiresTreeMessage     = "--depth requires --tree"
	sizesRequireLongMessage      = "--calculate-sizes requires --long"
	loadConfigurationErrorFormat = "load configuration: %w"
	copyToClipboardErrorFormat   = "copy to clipboard: %w"
	warningLogMessage            = "skipped"
	clipboardCopiedLogMessage    = "listing copied to clipboard"
	buildStartedLogMessage       = "building listing"
)

// applicationDependencies are the collaborators a command run needs.
type applicationDependencies struct {
	logger       *zap.Logger
	level        zap.AtomicLevel
	copier       clipboard.Copier
	statusRunner gitstatus.Runner
}

// listingOptions stores the values of the listing flags.
type listingOptions struct {
	long              bool
	tree              bool
	depth             int
	all               bool
	git               bool
	calculateSizes    bool
	format            string
	exclusionPatterns []string
	disableGitignore  bool
	disableIgnoreFile bool
	color             string
	copyOutput        bool
	concurrency       int
	configPath        string
	verbose           bool
	showVersion       bool
}

// listingSettings are the effective options after configuration and flags are merged.
type listingSettings struct {
	format     string
	long       bool
	tree       bool
	git        bool
	color      string
	copyOutput bool
	build      types.BuildOptions
}

// Execute runs the lx application.
func Execute(ctx context.Context, logger *zap.Logger, level zap.AtomicLevel) error {
	rootCommand := createRootCommand(applicationDependencies{
		logger:       logger,
		level:        level,
		copier:       clipboard.NewService(),
		statusRunner: gitstatus.ExecRunner{},
	})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(dependencies applicationDependencies) *cobra.Command {
	var options listingOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, applicationVersion())
				return nil
			}
			if options.verbose {
				dependencies.level.SetLevel(zapcore.DebugLevel)
			}
			path := defaultPath
			if len(arguments) == 1 {
				path = arguments[0]
			}
			configuration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: options.configPath})
			if loadError != nil {
				return fmt.Errorf(loadConfigurationErrorFormat, loadError)
			}
			settings, settingsError := resolveSettings(command.Flags(), options, configuration, path)
			if settingsError != nil {
				return settingsError
			}
			return runListing(command.Context(), command.OutOrStdout(), dependencies, settings, path)
		},
	}

	flagSet := rootCommand.Flags()
	registerBooleanFlag(flagSet, &options.long, longFlagName, longFlagShorthand, false, longFlagDescription)
	registerBooleanFlag(flagSet, &options.tree, treeFlagName, treeFlagShorthand, false, treeFlagDescription)
	flagSet.IntVar(&options.depth, depthFlagName, 0, depthFlagDescription)
	registerBooleanFlag(flagSet, &options.all, allFlagName, allFlagShorthand, false, allFlagDescription)
	registerBooleanFlag(flagSet, &options.git, gitFlagName, "", false, gitFlagDescription)
	registerBooleanFlag(flagSet, &options.calculateSizes, calculateSizesFlagName, "", false, calculateSizesFlagDescription)
	flagSet.StringVar(&options.format, formatFlagName, types.FormatRaw, formatFlagDescription)
	flagSet.StringArrayVarP(&options.exclusionPatterns, exclusionFlagName, exclusionFlagName, nil, exclusionFlagDescription)
	registerBooleanFlag(flagSet, &options.disableGitignore, noGitignoreFlagName, "", false, disableGitignoreFlagDescription)
	registerBooleanFlag(flagSet, &options.disableIgnoreFile, noIgnoreFlagName, "", false, disableIgnoreFlagDescription)
	registerColorFlag(flagSet, &options.color)
	registerBooleanFlag(flagSet, &options.copyOutput, copyFlagName, "", false, copyFlagDescription)
	flagSet.IntVar(&options.concurrency, concurrencyFlagName, 0, concurrencyFlagDescription)
	flagSet.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(flagSet, &options.verbose, verboseFlagName, "", false, verboseFlagDescription)
	registerBooleanFlag(flagSet, &options.showVersion, versionFlagName, "", false, versionFlagDescription)

	rootCommand.AddCommand(createInitCommand())
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand() *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			writtenPath, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(command.OutOrStdout(), initWrittenTemplate, writtenPath)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, "", false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, "", false, forceFlagDescription)
	return initCommand
}

// resolveSettings layers explicit flags over configuration values over defaults.
func resolveSettings(flagSet *pflag.FlagSet, options listingOptions, configuration config.ApplicationConfiguration, path string) (listingSettings, error) {
	boolSetting := func(flagName string, flagValue bool, configured *bool, fallback bool) bool {
		if flagSet.Changed(flagName) {
			return flagValue
		}
		return config.BoolOrDefault(configured, fallback)
	}

	settings := listingSettings{
		long:       boolSetting(longFlagName, options.long, configuration.Long, false),
		tree:       boolSetting(treeFlagName, options.tree, configuration.Tree, false),
		git:        boolSetting(gitFlagName, options.git, configuration.Git, false),
		copyOutput: boolSetting(copyFlagName, options.copyOutput, configuration.Copy, false),
		format:     config.StringOrDefault(configuration.Format, types.FormatRaw),
		color:      config.StringOrDefault(configuration.Color, types.ColorAuto),
	}
	if flagSet.Changed(formatFlagName) {
		settings.format = options.format
	}
	settings.format = strings.ToLower(strings.TrimSpace(settings.format))
	if formatError := output.ValidateFormat(settings.format); formatError != nil {
		return listingSettings{}, fmt.Errorf(invalidFormatMessage, settings.format)
	}
	if flagSet.Changed(colorFlagName) {
		settings.color = options.color
	}
	if _, colorError := output.ShouldColorize(settings.color, io.Discard); colorError != nil {
		return listingSettings{}, colorError
	}

	if flagSet.Changed(depthFlagName) && !settings.tree {
		return listingSettings{}, errors.New(depthRequiresTreeMessage)
	}
	calculateSizes := boolSetting(calculateSizesFlagName, options.calculateSizes, configuration.CalculateSizes, false)
	if flagSet.Changed(calculateSizesFlagName) && calculateSizes && !settings.long && settings.format == types.FormatRaw {
		return listingSettings{}, errors.New(sizesRequireLongMessage)
	}

	depthLimit := types.MaxDepth(1)
	if settings.tree {
		depthLimit = types.UnboundedDepth()
		depth, depthConfigured := options.depth, flagSet.Changed(depthFlagName)
		if !depthConfigured && configuration.Depth != nil {
			depth, depthConfigured = *configuration.Depth, true
		}
		if depthConfigured {
			if depth < 0 {
				return listingSettings{}, fmt.Errorf(invalidDepthMessage, depth)
			}
			depthLimit = types.MaxDepth(depth)
		}
	}

	precedence, precedenceError := configuration.StatusPrecedence()
	if precedenceError != nil {
		return listingSettings{}, precedenceError
	}

	concurrency := config.IntOrDefault(configuration.Concurrency, 0)
	if flagSet.Changed(concurrencyFlagName) {
		concurrency = options.concurrency
	}

	useGitignore := config.BoolOrDefault(configuration.Paths.UseGitignore, true)
	if flagSet.Changed(noGitignoreFlagName) {
		useGitignore = !options.disableGitignore
	}
	useIgnoreFile := config.BoolOrDefault(configuration.Paths.UseIgnoreFile, true)
	if flagSet.Changed(noIgnoreFlagName) {
		useIgnoreFile = !options.disableIgnoreFile
	}

	exclusionPatterns := append(append([]string{}, configuration.Paths.Exclude...), options.exclusionPatterns...)

	settings.build = types.BuildOptions{
		RootPath:          path,
		ShowAll:           boolSetting(allFlagName, options.all, configuration.All, false),
		MaxDepth:          depthLimit,
		ComputeGit:        settings.git,
		ComputeSizes:      calculateSizes && (settings.long || settings.format != types.FormatRaw),
		UseGitignore:      useGitignore,
		UseIgnoreFile:     useIgnoreFile,
		ExclusionPatterns: exclusionPatterns,
		Concurrency:       concurrency,
		Precedence:        precedence,
	}
	return settings, nil
}

// runListing builds the tree, logs its warnings and renders it to stdout.
func runListing(ctx context.Context, stdout io.Writer, dependencies applicationDependencies, settings listingSettings, rootLabel string) error {
	logger := dependencies.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(buildStartedLogMessage,
		zap.String("path", settings.build.RootPath),
		zap.Stringer("depth", settings.build.MaxDepth),
		zap.Bool("git", settings.build.ComputeGit),
		zap.Bool("sizes", settings.build.ComputeSizes),
	)

	treeBuilder := &commands.TreeBuilder{Logger: logger, StatusRunner: dependencies.statusRunner}
	result, buildError := treeBuilder.Build(ctx, settings.build)
	if buildError != nil {
		return buildError
	}
	for _, warning := range result.Warnings {
		logger.Warn(warningLogMessage,
			zap.String("path", warning.Path),
			zap.Stringer("kind", warning.Kind),
			zap.NamedError("cause", warning.Err),
		)
	}

	colorize, colorError := output.ShouldColorize(settings.color, stdout)
	if colorError != nil {
		return colorError
	}
	renderOptions := output.RenderOptions{
		Format:    settings.format,
		Long:      settings.long,
		Tree:      settings.tree,
		Git:       settings.git,
		Color:     colorize,
		RootLabel: rootLabel,
	}
	var rendered bytes.Buffer
	if renderError := output.Render(&rendered, result, renderOptions); renderError != nil {
		return renderError
	}
	if _, writeError := stdout.Write(rendered.Bytes()); writeError != nil {
		return writeError
	}

	if !settings.copyOutput || dependencies.copier == nil {
		return nil
	}
	copied := rendered.String()
	if colorize {
		var plain bytes.Buffer
		renderOptions.Color = false
		if renderError := output.Render(&plain, result, renderOptions); renderError != nil {
			return renderError
		}
		copied = plain.String()
	}
	if copyError := dependencies.copier.Copy(copied); copyError != nil {
		return fmt.Errorf(copyToClipboardErrorFormat, copyError)
	}
	logger.Debug(clipboardCopiedLogMessage, zap.Int("bytes", len(copied)))
	return nil
}
