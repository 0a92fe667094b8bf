// apkforge detects the technology of a source-code project and builds a signed
// android package from it using pre-provisioned offline toolchains.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/buildenv"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/exec"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/orchestrator"
	"github.com/PolarPolaris/Apk-Build-By-Polar/pkg/pipeline"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	// Optional; signing credentials may be supplied through a local .env file.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var toolchainsDir string

	root := &cobra.Command{
		Use:           "apkforge",
		Short:         "Build signed android packages from arbitrary source projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultToolchains := os.Getenv("APKFORGE_TOOLCHAINS")
	if defaultToolchains == "" {
		if home, err := os.UserHomeDir(); err == nil {
			defaultToolchains = filepath.Join(home, ".apkforge", "toolchains")
		}
	}

	root.PersistentFlags().StringVar(
		&toolchainsDir, "toolchains", defaultToolchains, "base directory of the offline toolchains")

	root.AddCommand(newDetectCommand(&toolchainsDir))
	root.AddCommand(newBuildCommand(&toolchainsDir))

	return root
}

func newOrchestrator(toolchainsDir string) (*orchestrator.Orchestrator, error) {
	env, err := buildenv.Resolve(toolchainsDir)
	if err != nil {
		return nil, err
	}

	return orchestrator.New(env, exec.NewCommandRunner()), nil
}

func newDetectCommand(toolchainsDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <path>",
		Short: "Detect the project type of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := newOrchestrator(*toolchainsDir)
			if err != nil {
				return err
			}

			info := orch.DetectProject(args[0])

			color.New(color.Bold).Printf("%s", info.Type)
			fmt.Printf(" (confidence %d)\n", info.Confidence)
			for _, evidence := range info.Evidence {
				fmt.Printf("  - %s\n", evidence)
			}

			return nil
		},
	}
}

func newBuildCommand(toolchainsDir *string) *cobra.Command {
	var (
		appName     string
		packageName string
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "build <path>",
		Short: "Build and sign a package from a project directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourcePath := args[0]

			orch, err := newOrchestrator(*toolchainsDir)
			if err != nil {
				return err
			}

			options, err := loadOptions(sourcePath)
			if err != nil {
				return err
			}

			if appName != "" {
				options.AppName = appName
			}
			if packageName != "" {
				options.PackageName = packageName
			}
			if outputDir != "" {
				options.OutputDir = outputDir
			}

			if options.AppName == "" {
				options.AppName = orch.DetectProject(sourcePath).SuggestedName
			}
			if options.PackageName == "" {
				options.PackageName = "com.apkforge." + options.AppName
			}

			result := orch.Build(cmd.Context(), sourcePath, options,
				func(progress pipeline.BuildProgress) {
					fmt.Printf("[%3d%%] %s: %s\n", progress.Percent, progress.Stage, progress.Message)
				},
				cmd.OutOrStdout())

			for _, warning := range result.Warnings {
				color.Yellow("warning: %s", warning)
			}

			if !result.Success {
				for _, buildErr := range result.Errors {
					color.Red("error: %s", buildErr)
				}
				return fmt.Errorf("build failed after %s", result.Elapsed)
			}

			color.Green("built %s in %s", result.ArtifactPath, result.Elapsed)
			return nil
		},
	}

	cmd.Flags().StringVar(&appName, "name", "", "app display name")
	cmd.Flags().StringVar(&packageName, "package", "", "reverse-domain package identifier")
	cmd.Flags().StringVar(&outputDir, "out", "", "output directory for the signed package")

	return cmd
}

// loadOptions reads apkforge.yaml from the project directory when present and
// overlays release signing credentials from the environment.
func loadOptions(sourcePath string) (pipeline.BuildOptions, error) {
	options := pipeline.BuildOptions{}

	configPath := filepath.Join(sourcePath, "apkforge.yaml")
	if contents, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(contents, &options); err != nil {
			return options, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	if keystore := os.Getenv("APKFORGE_KEYSTORE_PATH"); keystore != "" {
		options.SignMode = pipeline.SignModeRelease
		options.Signing = pipeline.SigningCredentials{
			KeystorePath:  keystore,
			StorePassword: os.Getenv("APKFORGE_KEYSTORE_PASS"),
			KeyPassword:   os.Getenv("APKFORGE_KEY_PASS"),
			KeyAlias:      os.Getenv("APKFORGE_KEY_ALIAS"),
		}
	}

	return options, nil
}
