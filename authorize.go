package main

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func newAuthorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "authorize",
		Aliases: []string{"authorise"},
		Short:   "Authorize your B2 account",
		Long: `Prompt for a Backblaze application key and exchange it for an
authorization token. The key and the resulting session are saved to the
config file for subsequent commands.`,
		Args: cobra.NoArgs,
		RunE: runAuthorize,
	}
}

func runAuthorize(cmd *cobra.Command, _ []string) error {
	client := newAPIClient()
	session := client.Session()

	keyID, key, err := promptCredentials()
	if err != nil {
		return err
	}

	session.KeyID = keyID
	session.Key = key

	if err := client.Authorize(cmd.Context()); err != nil {
		return err
	}

	if err := saveState(client); err != nil {
		return err
	}

	statusf("Authorized account %s\n", session.AccountID)

	return nil
}

// promptCredentials asks for the application key ID and the key itself.
// The key is masked while typing since it is a long-lived secret.
func promptCredentials() (keyID, key string, err error) {
	idPrompt := promptui.Prompt{
		Label: "Application key ID",
		Validate: func(input string) error {
			if input == "" {
				return errors.New("key ID is required")
			}

			return nil
		},
	}

	keyID, err = idPrompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("reading key ID: %w", err)
	}

	keyPrompt := promptui.Prompt{
		Label: "Application key",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("key is required")
			}

			return nil
		},
	}

	key, err = keyPrompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("reading key: %w", err)
	}

	return keyID, key, nil
}
