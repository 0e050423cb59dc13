package contract

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kilnforge/kiln/cmd/kiln/internal/common"
	"github.com/kilnforge/kiln/cmd/kiln/internal/config"
	"github.com/kilnforge/kiln/internal/types"
	"github.com/spf13/cobra"
)

func GetCodeCommand(cfg *common.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code [address]",
		Short: "Get the code of a smart contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCode(cmd, args, cfg)
		},
		SilenceUsage: true,
	}

	return cmd
}

func runCode(cmd *cobra.Command, args []string, _ *common.Config) error {
	var address types.Address
	if err := address.Set(args[0]); err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}

	code, err := common.GetRpcClient().GetCode(cmd.Context(), address)
	if err != nil {
		return err
	}

	if !config.Quiet {
		fmt.Print("Contract code: ")
	}
	fmt.Println(strings.ToUpper(hex.EncodeToString(code)))

	return nil
}
