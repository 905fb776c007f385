package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"b2go/internal/b2"
)

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file> <bucket> [dest]",
		Short: "Upload a file to a bucket",
		Long: `Upload a file to B2. If dest is not given, the file's base name is
used. Files of 1 GiB or more (or with --parts) are uploaded with the
large-file API as sequential parts.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: runUpload,
	}

	cmd.Flags().BoolP("parts", "p", false, "force the large-file (parts) upload path")
	cmd.Flags().StringP("content-type", "c", "", "override the content type instead of guessing by extension")
	cmd.Flags().BoolP("recursive", "r", false, "upload directories recursively")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	forceParts, _ := cmd.Flags().GetBool("parts")
	contentType, _ := cmd.Flags().GetString("content-type")
	recursive, _ := cmd.Flags().GetBool("recursive")

	localPath := args[0]
	bucket := args[1]

	dest := ""
	if len(args) > 2 {
		dest = args[2]
	}

	client := newAPIClient()

	if err := ensureAuthorized(cmd.Context(), client); err != nil {
		return err
	}

	bucketID, err := client.ResolveBucketID(cmd.Context(), bucket)
	if err != nil {
		return err
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	opts := b2.UploadOptions{ContentType: contentType, ForceParts: forceParts}

	if info.IsDir() {
		if !recursive {
			return fmt.Errorf("%s is a directory (use --recursive)", localPath)
		}

		err = uploadDir(cmd, client, bucketID, localPath, dest, opts)
	} else {
		err = uploadOne(cmd, client, bucketID, localPath, destName(localPath, dest), opts)
	}

	if err != nil {
		return err
	}

	return saveState(client)
}

// uploadDir walks a directory tree and uploads every regular file,
// preserving the relative layout under dest.
func uploadDir(
	cmd *cobra.Command, client *b2.Client, bucketID, dir, dest string, opts b2.UploadOptions,
) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}

		name := filepath.ToSlash(rel)
		if dest != "" {
			name = dest + "/" + name
		}

		return uploadOne(cmd, client, bucketID, path, name, opts)
	})
}

// uploadOne uploads a single regular file under the given object name.
func uploadOne(
	cmd *cobra.Command, client *b2.Client, bucketID, localPath, name string, opts b2.UploadOptions,
) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", localPath, b2.ErrNotAFile)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	// NFC-normalize the object key so the same file name always maps to
	// the same object regardless of how the local filesystem encodes it.
	name = norm.NFC.String(name)

	opts.Progress = newProgressPrinter("Uploading " + name)

	file, err := client.UploadFile(cmd.Context(), bucketID, name, f, info.Size(), opts)
	if err != nil {
		return err
	}

	statusf("Uploaded %s (%s)\n", file.Name, formatSize(info.Size()))

	return nil
}

// destName applies the default destination: the uploaded file's base name.
func destName(localPath, dest string) string {
	if dest != "" {
		return dest
	}

	return filepath.Base(localPath)
}
