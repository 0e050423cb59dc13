package registry

import (
	"fmt"

	"github.com/kilnforge/kiln/cmd/kiln/internal/common"
	"github.com/kilnforge/kiln/cmd/kiln/internal/config"
	"github.com/spf13/cobra"
)

func GetCommand(cfg *common.Config) *cobra.Command {
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the local contract registry",
	}

	registryCmd.AddCommand(getListCommand(cfg))
	registryCmd.AddCommand(getShowCommand(cfg))

	return registryCmd
}

func getListCommand(cfg *common.Config) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List registered contracts",
		Args:         cobra.ExactArgs(0),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := common.GetRegistry().List()
			if err != nil {
				return err
			}
			for _, rec := range records {
				if rec.DeployedAddress.IsEmpty() || config.Quiet {
					fmt.Println(rec.Name)
					continue
				}
				fmt.Printf("%s\t%s\n", rec.Name, rec.DeployedAddress)
			}
			return nil
		},
	}
}

func getShowCommand(cfg *common.Config) *cobra.Command {
	return &cobra.Command{
		Use:          "show [name]",
		Short:        "Show a registered contract",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := common.GetRegistry().Get(args[0])
			if err != nil {
				return err
			}

			if !config.Quiet {
				fmt.Print("Deployer address: ")
			}
			fmt.Println(rec.DeployerAddress)

			if !config.Quiet {
				fmt.Print("Contract address: ")
			}
			fmt.Println(rec.DeployedAddress)

			if !config.Quiet {
				fmt.Print("ABI: ")
			}
			fmt.Println(string(rec.ABI))

			return nil
		},
	}
}
