package contract

import (
	"fmt"

	"github.com/kilnforge/kiln/cmd/kiln/internal/common"
	"github.com/kilnforge/kiln/cmd/kiln/internal/config"
	"github.com/spf13/cobra"
)

func GetCallCommand(cfg *common.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call [name] [method] [args...]",
		Short: "Call a smart contract function",
		Long:  "Broadcast a transaction calling a function of a registered contract and wait for confirmation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, args, cfg)
		},
		SilenceUsage: true,
	}

	cmd.Flags().Uint64Var(
		&params.amount,
		amountFlag,
		0,
		"Amount of funds to transfer with the call",
	)

	return cmd
}

func runCall(cmd *cobra.Command, args []string, _ *common.Config) error {
	service := common.GetService()

	res, err := service.Call(cmd.Context(), args[0], args[1], args[2:], params.amount)
	if err != nil {
		return err
	}

	if !config.Quiet {
		fmt.Print("Transaction hash: ")
	}
	fmt.Println(res.TxHash)

	if res.Value == nil {
		if !config.Quiet {
			fmt.Println("Success, no result")
		}
		return nil
	}

	if !config.Quiet {
		fmt.Print("Result: ")
	}
	fmt.Println(res.Value)

	return nil
}
