package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	qrlogininfra "github.com/dvd/backend/internal/infrastructure/qrlogin"
)

var decode bool

var encodeCmd = &cobra.Command{
	Use:   "encode <code>",
	Short: "Show the Doudian wire form of a verification code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if decode {
			plain, err := qrlogininfra.DecodeVerificationCode(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plain)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), qrlogininfra.EncodeVerificationCode(args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().BoolVarP(&decode, "decode", "d", false, "Decode a wire-form code instead")
}
