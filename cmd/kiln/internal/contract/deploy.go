package contract

import (
	"fmt"
	"os"

	"github.com/kilnforge/kiln/cmd/kiln/internal/common"
	"github.com/kilnforge/kiln/cmd/kiln/internal/config"
	"github.com/spf13/cobra"
)

func GetDeployCommand(cfg *common.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy [path to source] [more sources...]",
		Short: "Deploy smart contracts",
		Long:  "Compile the given source files, deploy them, and record the deployments in the registry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, args, cfg)
		},
		SilenceUsage: true,
	}

	return cmd
}

func runDeploy(cmd *cobra.Command, paths []string, _ *common.Config) error {
	service := common.GetService()

	sources := make([]string, 0, len(paths))
	for _, path := range paths {
		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read source file: %w", err)
		}
		sources = append(sources, string(source))
	}

	results, err := service.DeployAll(cmd.Context(), sources)
	if err != nil {
		return err
	}

	for _, res := range results {
		if !config.Quiet {
			fmt.Print("Contract name: ")
		}
		fmt.Println(res.Name)

		if !config.Quiet {
			fmt.Print("Transaction hash: ")
		}
		fmt.Println(res.TxHash)

		if !config.Quiet {
			fmt.Print("Contract address: ")
		}
		fmt.Println(res.Address)

		if !config.Quiet {
			if res.Verify.Match {
				fmt.Println("Bytecode verified")
			} else {
				fmt.Println("Bytecode NOT verified")
			}
		}
	}

	return nil
}
