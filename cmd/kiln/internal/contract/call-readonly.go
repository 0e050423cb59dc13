package contract

import (
	"fmt"

	"github.com/kilnforge/kiln/cmd/kiln/internal/common"
	"github.com/kilnforge/kiln/cmd/kiln/internal/config"
	"github.com/spf13/cobra"
)

func GetCallReadonlyCommand(cfg *common.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call-readonly [name] [method] [args...]",
		Short: "Readonly call of a smart contract",
		Long:  "Call a function of a registered contract through the node's simulated call, without broadcasting a transaction",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCallReadonly(cmd, args, cfg)
		},
		SilenceUsage: true,
	}

	return cmd
}

func runCallReadonly(cmd *cobra.Command, args []string, _ *common.Config) error {
	service := common.GetService()

	res, err := service.CallReadonly(cmd.Context(), args[0], args[1], args[2:])
	if err != nil {
		return err
	}

	if res.Value == nil {
		fmt.Println("Success, no result")
		return nil
	}

	if !config.Quiet {
		fmt.Print("Result: ")
	}
	fmt.Println(res.Value)

	return nil
}
