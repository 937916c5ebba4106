package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/otpcop/internal/audit"
	"github.com/temirov/otpcop/internal/awsiam"
	"github.com/temirov/otpcop/internal/github"
	"github.com/temirov/otpcop/internal/report"
	"github.com/temirov/otpcop/internal/slack"
	"github.com/temirov/otpcop/internal/utils"
	flagutils "github.com/temirov/otpcop/internal/utils/flags"
)

const (
	applicationNameConstant                 = "otpcop"
	applicationShortDescriptionConstant     = "Audit AWS IAM, GitHub and Slack for accounts without two-factor authentication"
	applicationLongDescriptionConstant      = "otpcop runs every configured backend concurrently and lists the accounts that lack two-factor authentication. A backend is configured when its required options are supplied through flags, the configuration file or OTPCOP_OPTIONS_* environment variables."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	outputFlagNameConstant                  = "output"
	outputFlagUsageConstant                 = "Report format."
	colorFlagNameConstant                   = "color"
	colorFlagUsageConstant                  = "Highlight failures in text reports."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonOutputConfigKeyConstant           = commonConfigurationKeyConstant + ".output"
	commonColorConfigKeyConstant            = commonConfigurationKeyConstant + ".color"
	optionsConfigurationKeyConstant         = "options"
	pollingMaxAttemptsConfigKeyConstant     = "polling.max_attempts"
	pollingInitialIntervalConfigKeyConstant = "polling.initial_interval"
	pollingMaxIntervalConfigKeyConstant     = "polling.max_interval"
	environmentPrefixConstant               = "OTPCOP"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	userConfigurationSearchPathConstant     = "~/.otpcop"
	configurationInitializedMessageConstant = "configuration initialized"
	auditCompletedMessageConstant           = "audit completed"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	logFieldBackendsConstant                = "backends"
	logFieldAlarmingConstant                = "alarming"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	reportRenderErrorTemplateConstant       = "unable to render report: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	noBackendConfiguredMessageConstant      = "no backend configured: supply the required options of at least one backend"
)

// ErrNoBackendConfigured reports that no factory produced a ready backend.
var ErrNoBackendConfigured = errors.New(noBackendConfiguredMessageConstant)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration `mapstructure:"common"`
	Options map[string]string              `mapstructure:"options"`
	Polling awsiam.PollSettings            `mapstructure:"polling"`
}

// ApplicationCommonConfiguration stores logging and output configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Output    string `mapstructure:"output"`
	Color     bool   `mapstructure:"color"`
}

// FactoryProvider returns the backend factories for a loaded configuration,
// in report order.
type FactoryProvider func(configuration ApplicationConfiguration) []audit.BackendFactory

// DefaultFactories returns the Slack, GitHub and AWS factories.
func DefaultFactories(configuration ApplicationConfiguration) []audit.BackendFactory {
	return []audit.BackendFactory{
		slack.Factory{},
		github.Factory{},
		awsiam.Factory{PollSettings: configuration.Polling},
	}
}

// ApplicationOption customizes an Application.
type ApplicationOption func(application *Application)

// WithFactoryProvider replaces the backend factories.
func WithFactoryProvider(provider FactoryProvider) ApplicationOption {
	return func(application *Application) {
		if provider != nil {
			application.factoryProvider = provider
		}
	}
}

// WithLoggerFactory replaces the logger factory.
func WithLoggerFactory(loggerFactory *utils.LoggerFactory) ApplicationOption {
	return func(application *Application) {
		if loggerFactory != nil {
			application.loggerFactory = loggerFactory
		}
	}
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	factoryProvider       FactoryProvider
	optionDescriptors     []audit.OptionDescriptor
	optionFlagValues      map[string]*string
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	outputFlagValue       string
	colorFlagValue        string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication(options ...ApplicationOption) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant, userConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		factoryProvider:     DefaultFactories,
		optionFlagValues:    map[string]*string{},
	}
	for _, option := range options {
		option(application)
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "",
		flagutils.FormatChoiceUsage(string(utils.LogFormatStructured), []string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}, logFormatFlagUsageConstant))
	cobraCommand.PersistentFlags().StringVar(&application.outputFlagValue, outputFlagNameConstant, "",
		flagutils.FormatChoiceUsage(string(report.FormatText), report.SupportedFormats(), outputFlagUsageConstant))
	flagutils.AddToggleFlag(cobraCommand.PersistentFlags(), &application.colorFlagValue, colorFlagNameConstant, colorFlagUsageConstant)

	application.optionDescriptors = collectOptionDescriptors(application.factoryProvider(ApplicationConfiguration{}))
	application.registerOptionFlags(cobraCommand.Flags())

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the root command with the provided arguments and ensures logger flushing.
func (application *Application) Execute(executionContext context.Context, arguments []string, standardOutput io.Writer, standardError io.Writer) error {
	if executionContext == nil {
		executionContext = context.Background()
	}
	if arguments == nil {
		arguments = []string{}
	}
	application.rootCommand.SetArgs(arguments)
	application.rootCommand.SetOut(standardOutput)
	application.rootCommand.SetErr(standardError)

	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultPolling := awsiam.DefaultPollSettings()
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:         string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:        string(utils.LogFormatStructured),
		commonOutputConfigKeyConstant:           string(report.FormatText),
		commonColorConfigKeyConstant:            true,
		pollingMaxAttemptsConfigKeyConstant:     defaultPolling.MaxAttempts,
		pollingInitialIntervalConfigKeyConstant: defaultPolling.InitialInterval,
		pollingMaxIntervalConfigKeyConstant:     defaultPolling.MaxInterval,
	}
	for _, descriptor := range application.optionDescriptors {
		defaultValues[optionsConfigurationKeyConstant+"."+descriptor.Name] = ""
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, outputFlagNameConstant) {
		application.configuration.Common.Output = application.outputFlagValue
	}
	if application.persistentFlagChanged(command, colorFlagNameConstant) {
		application.configuration.Common.Color = application.colorFlagValue == "true"
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) runRootCommand(command *cobra.Command) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	outputFormat, formatError := report.ParseFormat(application.configuration.Common.Output)
	if formatError != nil {
		return formatError
	}
	renderer, rendererError := report.NewRenderer(outputFormat, application.configuration.Common.Color)
	if rendererError != nil {
		return rendererError
	}

	optionValues, optionsError := application.resolveOptionValues(command)
	if optionsError != nil {
		return optionsError
	}

	backends, buildError := audit.BuildBackends(application.factoryProvider(application.configuration), optionValues)
	if buildError != nil {
		return buildError
	}
	if len(backends) == 0 {
		_, _ = fmt.Fprint(command.ErrOrStderr(), command.UsageString())
		return ErrNoBackendConfigured
	}

	outcomes := audit.NewOrchestrator(application.logger).Run(command.Context(), backends)

	if renderError := renderer.Render(command.OutOrStdout(), outcomes); renderError != nil {
		return fmt.Errorf(reportRenderErrorTemplateConstant, renderError)
	}

	application.logger.Info(
		auditCompletedMessageConstant,
		zap.Int(logFieldBackendsConstant, len(outcomes)),
		zap.Bool(logFieldAlarmingConstant, audit.Alarming(outcomes)),
	)

	return report.Evaluate(outcomes)
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

func collectOptionDescriptors(factories []audit.BackendFactory) []audit.OptionDescriptor {
	descriptors := make([]audit.OptionDescriptor, 0)
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		descriptors = append(descriptors, factory.Options()...)
	}
	return descriptors
}

func isBlank(value string) bool {
	return len(strings.TrimSpace(value)) == 0
}
