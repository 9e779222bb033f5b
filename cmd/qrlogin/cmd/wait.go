package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var waitOpts struct {
	token      string
	accountID  int64
	platformID int64
	productID  int64
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Resume waiting on an issued QR code",
	Long: `Block on a QR code issued earlier, by this tool or by the HTTP API,
until the login finishes. The attempt must be in the shared Redis store.`,
	Example: `  qrlogin wait --token 6d2f... --account-id 42`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		resp, err := waitForLogin(ctx, a.service, loginTarget{
			token:      waitOpts.token,
			accountID:  waitOpts.accountID,
			platformID: waitOpts.platformID,
			productID:  waitOpts.productID,
		}, p)
		if err != nil {
			return err
		}
		printResult(p.out, resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	f := waitCmd.Flags()
	f.StringVar(&waitOpts.token, "token", "", "Token printed by start")
	f.Int64Var(&waitOpts.accountID, "account-id", 0, "Crawl account that receives the session")
	f.Int64Var(&waitOpts.platformID, "platform-id", 0, "Platform configuration menu id")
	f.Int64Var(&waitOpts.productID, "product-id", 0, "Product configuration menu id")
	_ = waitCmd.MarkFlagRequired("token")
}
