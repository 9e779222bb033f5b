package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	qrloginapp "github.com/dvd/backend/internal/application/qrlogin"
)

type startOptions struct {
	platformID   int64
	productID    int64
	accountID    int64
	platformName string
	productName  string
	imagePath    string
	wait         bool
}

var startOpts startOptions

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Issue a QR code and wait for it to be scanned",
	Long: `Issue a QR code for a platform. The image is written to --image and the
token printed. Unless --wait=false, the command then blocks until the login
finishes, prompting for a verification code if the platform requires one.`,
	Example: `  qrlogin start --platform doudian --image qr.png
  qrlogin start --platform-id 1 --product-id 2 --account-id 42`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runStart(ctx, a.service, startOpts, newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	f := startCmd.Flags()
	f.Int64Var(&startOpts.platformID, "platform-id", 0, "Platform configuration menu id")
	f.Int64Var(&startOpts.productID, "product-id", 0, "Product configuration menu id")
	f.Int64Var(&startOpts.accountID, "account-id", 0, "Crawl account that receives the session")
	f.StringVar(&startOpts.platformName, "platform", "", "Platform name, used when no menu ids are given")
	f.StringVar(&startOpts.productName, "product", "", "Product name")
	f.StringVar(&startOpts.imagePath, "image", "qrcode.png", "Where to write the QR image")
	f.BoolVar(&startOpts.wait, "wait", true, "Block until the login finishes")
}

func runStart(ctx context.Context, svc loginService, opts startOptions, p *prompter) error {
	started, err := svc.StartLogin(ctx, qrloginapp.StartLoginRequest{
		PlatformID:   opts.platformID,
		ProductID:    opts.productID,
		AccountID:    opts.accountID,
		PlatformName: opts.platformName,
		ProductName:  opts.productName,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(p.out, "Platform: %s\n", started.Platform)
	fmt.Fprintf(p.out, "Token:    %s\n", started.Token)
	fmt.Fprintf(p.out, "Expires:  %s\n", started.ExpiresAt.Local().Format(time.DateTime))
	if opts.imagePath != "" {
		if err := writeImage(opts.imagePath, started.Image); err != nil {
			return err
		}
		fmt.Fprintf(p.out, "Scan the QR code in %s\n", opts.imagePath)
	}
	if !opts.wait {
		return nil
	}

	resp, err := waitForLogin(ctx, svc, loginTarget{
		token:      started.Token,
		accountID:  opts.accountID,
		platformID: opts.platformID,
		productID:  opts.productID,
	}, p)
	if err != nil {
		return err
	}
	printResult(p.out, resp)
	return nil
}
