package main

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"unicode/utf8"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <bucket> <file>",
		Short: "Download a file from a bucket",
		Args:  cobra.ExactArgs(2),
		RunE:  runDownload,
	}

	cmd.Flags().StringP("output", "O", "", "local file to write (default: the remote base name)")

	return cmd
}

func newCatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <bucket> <file>",
		Short: "Print a file to stdout",
		Args:  cobra.ExactArgs(2),
		RunE:  runCat,
	}

	cmd.Flags().BoolP("force", "f", false, "print even if the content is not text")

	return cmd
}

func runDownload(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	bucket := args[0]
	remote := args[1]

	if output == "" {
		output = path.Base(remote)
	}

	client := newAPIClient()

	if err := ensureAuthorized(cmd.Context(), client); err != nil {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer out.Close()

	n, err := client.Download(cmd.Context(), bucket, remote, out, newProgressPrinter("Downloading "+remote))
	if err != nil {
		return err
	}

	if closeErr := out.Close(); closeErr != nil {
		return fmt.Errorf("writing %s: %w", output, closeErr)
	}

	statusf("Downloaded %s to %s\n", formatSize(n), output)

	return saveState(client)
}

func runCat(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	client := newAPIClient()

	if err := ensureAuthorized(cmd.Context(), client); err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := client.Download(cmd.Context(), args[0], args[1], &buf, nil); err != nil {
		return err
	}

	// Refuse to dump binary data onto an interactive terminal unless the
	// user confirms or forces it. Piped output always goes through raw.
	if !force && !utf8.Valid(buf.Bytes()) && isatty.IsTerminal(os.Stdout.Fd()) {
		confirm := promptui.Prompt{
			Label:     "This file is not plain text. Print it anyway",
			IsConfirm: true,
		}

		if _, err := confirm.Run(); err != nil {
			statusf("Exiting.\n")
			return saveState(client)
		}
	}

	if _, err := buf.WriteTo(cmd.OutOrStdout()); err != nil {
		return err
	}

	return saveState(client)
}
