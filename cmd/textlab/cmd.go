package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/getzep/textlab/config"
	"github.com/getzep/textlab/internal"
)

var (
	log = internal.GetLogger()

	cfgFile     string
	showVersion bool
	dumpConfig  bool

	taskID         string
	trainAlgorithm string
	algorithmName  string
	algorithmNames []string
	representation string
	hyperparameter float64
	dataPath       string
	activate       bool
)

var cmd = &cobra.Command{
	Use:   "textlab",
	Short: "textlab normalizes, vectorizes and classifies text, and compares classical classifiers",
	Run:   func(cmd *cobra.Command, args []string) { run() },
}

var trainCmd = &cobra.Command{
	Use:     "train",
	Short:   "Train and save a model for a task",
	Example: "textlab train --task sentiment --algorithm naive-bayes --representation tf-idf --data reviews.csv",
}

var predictCmd = &cobra.Command{
	Use:     "predict [text]",
	Short:   "Classify a text with a trained model",
	Example: `textlab predict --task spam "WINNER! claim your free prize"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPredict(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

var compareCmd = &cobra.Command{
	Use:     "compare [text]",
	Short:   "Compare the trained algorithms of a task on a text",
	Example: `textlab compare --task sentiment --algorithms naive-bayes,svm "what a great film"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompare(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage trained models",
}

var listModelsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the trained models of a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListModels(cmd.Context(), cmd.OutOrStdout())
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test utilities",
}

var createFixturesCmd = &cobra.Command{
	Use:   "create-fixtures",
	Short: "Create a synthetic labeled CSV dataset for testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		outputDir, _ := cmd.Flags().GetString("outputDir")
		labels, _ := cmd.Flags().GetStringSlice("labels")
		seed, _ := cmd.Flags().GetInt64("seed")
		path, err := createFixtures(outputDir, count, labels, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Fixtures created successfully: %s\n", path)
		return nil
	},
}

var dumpJsonSchemaCmd = &cobra.Command{
	Use:     "json-schema",
	Short:   "Generates JSON Schema for textlab's configuration file",
	Example: "textlab json-schema > textlab_config_schema.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(schema))
		return nil
	},
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle: runTrain reads trainCmd's flags.
	trainCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runTrain(cmd.Context(), cmd.OutOrStdout())
	}

	testCmd.AddCommand(createFixturesCmd)
	modelsCmd.AddCommand(listModelsCmd)
	cmd.AddCommand(trainCmd, predictCmd, compareCmd, modelsCmd, testCmd, dumpJsonSchemaCmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version number")
	cmd.PersistentFlags().BoolVarP(&dumpConfig, "dump-config", "d", false, "dump config")

	for _, c := range []*cobra.Command{trainCmd, predictCmd, compareCmd, listModelsCmd} {
		c.Flags().StringVarP(&taskID, "task", "t", "", "task id or name")
		_ = c.MarkFlagRequired("task")
	}

	trainCmd.Flags().StringVarP(&trainAlgorithm, "algorithm", "a", "naive-bayes", "classification algorithm")
	trainCmd.Flags().StringVarP(&representation, "representation", "r", "tf-idf", "representation method")
	trainCmd.Flags().Float64Var(&hyperparameter, "hyperparameter", 0, "alpha, C or k (default depends on the algorithm)")
	trainCmd.Flags().StringVarP(&dataPath, "data", "f", "", "CSV or JSON dataset with text and label columns")
	trainCmd.Flags().BoolVar(&activate, "activate", false, "use the new model for predictions")
	_ = trainCmd.MarkFlagRequired("data")

	predictCmd.Flags().StringVarP(&algorithmName, "algorithm", "a", "", "algorithm (default the active one)")
	compareCmd.Flags().StringSliceVar(&algorithmNames, "algorithms", nil, "algorithms to compare (default all)")

	createFixturesCmd.Flags().Int("count", 500, "Number of records to generate")
	createFixturesCmd.Flags().String("outputDir", "./test_data", "Path to output fixtures")
	createFixturesCmd.Flags().StringSlice("labels", []string{"negative", "positive"}, "Labels to generate")
	createFixturesCmd.Flags().Int64("seed", 42, "Random seed")
}

// Execute executes the root cobra command.
func Execute() {
	log.SetLevel(logrus.InfoLevel)

	err := cmd.Execute()

	if err != nil {
		os.Exit(1)
	}
}
