package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/veltra/corpusd/internal/drive"
)

var authCmd = &cobra.Command{
	Use:   "auth <source-id>",
	Short: "Authorize read-only Drive access for a source",
	Long: `Auth walks through the OAuth authorization code flow: it prints a
consent URL, waits for the authorization code, exchanges it for a token
pair, and stores the credential for the drive source.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(ctx context.Context, sourceArg string) error {
	sourceID, err := uuid.Parse(sourceArg)
	if err != nil {
		return fmt.Errorf("invalid drive source id %q: %w", sourceArg, err)
	}

	a, logger, err := setupStore(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	if err := a.Config.ValidateDrive(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	oauthCfg := drive.OAuthConfig(a.Config.DriveClientID, a.Config.DriveClientSecret)
	oauthCfg.RedirectURL = "urn:ietf:wg:oauth:2.0:oob"

	url := oauthCfg.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Println("Open the following URL in a browser and approve access:")
	fmt.Println()
	fmt.Printf("  %s\n", url)
	fmt.Println()
	fmt.Print("Paste the authorization code: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("authorization code must not be empty")
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	if err := a.Store.SetCredential(ctx, sourceID,
		token.AccessToken, token.RefreshToken, token.Expiry); err != nil {
		return err
	}

	fmt.Println("Drive access authorized.")
	return nil
}
