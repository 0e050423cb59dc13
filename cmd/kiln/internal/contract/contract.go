package contract

import (
	"github.com/kilnforge/kiln/cmd/kiln/internal/common"
	"github.com/spf13/cobra"
)

func GetCommand(cfg *common.Config) *cobra.Command {
	contractCmd := &cobra.Command{
		Use:   "contract",
		Short: "Deploy and call smart contracts",
	}

	contractCmd.AddCommand(GetDeployCommand(cfg))
	contractCmd.AddCommand(GetCallCommand(cfg))
	contractCmd.AddCommand(GetCallReadonlyCommand(cfg))
	contractCmd.AddCommand(GetCodeCommand(cfg))

	return contractCmd
}
