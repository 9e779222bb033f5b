package cmd

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	qrloginapp "github.com/dvd/backend/internal/application/qrlogin"
)

// loginTarget identifies the account and platform a token belongs to
type loginTarget struct {
	token      string
	accountID  int64
	platformID int64
	productID  int64
}

// prompter reads verification codes typed by the user
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) readCode() (string, error) {
	fmt.Fprint(p.out, "Verification code: ")
	line, err := p.in.ReadString('\n')
	code := strings.TrimSpace(line)
	if code != "" {
		return code, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading verification code: %w", err)
	}
	return "", errors.New("verification code is empty")
}

// waitForLogin blocks until the login succeeds or fails, handling
// verification step-ups on the way.
func waitForLogin(ctx context.Context, svc loginService, t loginTarget, p *prompter) (*qrloginapp.LoginStatusResponse, error) {
	resp, err := svc.WaitLogin(ctx, qrloginapp.WaitLoginRequest{
		Token:      t.token,
		AccountID:  t.accountID,
		PlatformID: t.platformID,
		ProductID:  t.productID,
	})
	for {
		if err != nil {
			return nil, err
		}
		switch resp.Status {
		case qrloginapp.StatusSuccess:
			return resp, nil
		case qrloginapp.StatusWaiting:
			fmt.Fprintln(p.out, "Still waiting for the code to be scanned...")
			resp, err = svc.WaitLogin(ctx, qrloginapp.WaitLoginRequest{
				Token:      t.token,
				AccountID:  t.accountID,
				PlatformID: t.platformID,
				ProductID:  t.productID,
			})
		case qrloginapp.StatusVerifyCode:
			resp, err = verify(ctx, svc, t, resp, p)
		default:
			return nil, fmt.Errorf("unexpected login status %q", resp.Status)
		}
	}
}

func verify(ctx context.Context, svc loginService, t loginTarget, resp *qrloginapp.LoginStatusResponse, p *prompter) (*qrloginapp.LoginStatusResponse, error) {
	if resp.VerifySceneDesc != "" {
		fmt.Fprintln(p.out, resp.VerifySceneDesc)
	}
	if len(resp.VerifyWays) > 0 {
		fmt.Fprintf(p.out, "Verification required via %s\n", strings.Join(resp.VerifyWays, ", "))
	}
	if _, err := svc.SendCode(ctx, qrloginapp.SendCodeRequest{
		Ticket:     resp.VerifyTicket,
		Cookies:    resp.Cookies,
		Token:      t.token,
		AccountID:  t.accountID,
		PlatformID: t.platformID,
		ProductID:  t.productID,
	}); err != nil {
		return nil, err
	}
	fmt.Fprintln(p.out, "A verification code has been sent.")

	code, err := p.readCode()
	if err != nil {
		return nil, err
	}
	return svc.SubmitCode(ctx, qrloginapp.SubmitCodeRequest{
		Code:       code,
		Ticket:     resp.VerifyTicket,
		Cookies:    resp.Cookies,
		Token:      t.token,
		AccountID:  t.accountID,
		PlatformID: t.platformID,
		ProductID:  t.productID,
	})
}

func printResult(out io.Writer, resp *qrloginapp.LoginStatusResponse) {
	fmt.Fprintln(out, "Login succeeded.")
	if resp.AccountID != 0 {
		fmt.Fprintf(out, "  account:   %d (status %d)\n", resp.AccountID, resp.AccountStatus)
	}
	fmt.Fprintf(out, "  confirmed: %t\n", resp.Confirmed)
	fmt.Fprintf(out, "  cookies:   %d\n", resp.Cookies.Len())
	if len(resp.Stores) > 0 {
		fmt.Fprintf(out, "  stores:    %s\n", strings.Join(resp.Stores, ", "))
	}
}

// writeImage stores a base64 data URI as a file
func writeImage(path, dataURI string) error {
	_, encoded, ok := strings.Cut(dataURI, ";base64,")
	if !ok {
		return errors.New("image is not a base64 data URI")
	}
	img, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}
	return os.WriteFile(path, img, 0o600)
}
