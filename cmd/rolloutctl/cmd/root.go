package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rollout.sh/internal/buildinfo"
)

var (
	cfgFile  string
	logLevel string
	verbose  bool
	noColor  bool

	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:     "rolloutctl",
	Short:   "rolloutctl - drives rolling deployments across a fleet of instances",
	Long:    "rolloutctl plans batches, updates instances with retry and timeout, watches failure thresholds, and rolls back a fleet to a prior snapshot on abort.",
	Version: buildinfo.Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: rollout.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(
		newDeployCmd(),
		newRollbackCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
}

func initConfig() {
	if noColor {
		color.NoColor = true
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("rollout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("ROLLOUT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Printf("using config file: %s\n", viper.ConfigFileUsed())
	}
}

func printSuccess(format string, a ...any) {
	fmt.Printf("%s %s\n", green("[OK]"), fmt.Sprintf(format, a...))
}

func printError(format string, a ...any) {
	fmt.Printf("%s %s\n", red("[ERROR]"), fmt.Sprintf(format, a...))
}

func printWarning(format string, a ...any) {
	fmt.Printf("%s %s\n", yellow("[WARN]"), fmt.Sprintf(format, a...))
}

func printInfo(format string, a ...any) {
	fmt.Printf("%s %s\n", blue("[INFO]"), fmt.Sprintf(format, a...))
}

func printHeader(text string) {
	fmt.Println(bold(text))
}

func workingDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
