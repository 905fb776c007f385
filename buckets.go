package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListBucketsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-buckets",
		Short: "List buckets (also refreshes the bucket cache)",
		Args:  cobra.NoArgs,
		RunE:  runListBuckets,
	}
}

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <bucket>",
		Short: "Show files in a bucket",
		Args:  cobra.ExactArgs(1),
		RunE:  runLs,
	}

	cmd.Flags().BoolP("long", "l", false, "show size and upload date")
	cmd.Flags().BoolP("tree", "t", false, "render file names as a tree")

	return cmd
}

func runListBuckets(cmd *cobra.Command, _ []string) error {
	client := newAPIClient()

	if err := ensureAuthorized(cmd.Context(), client); err != nil {
		return err
	}

	buckets, err := client.ListBuckets(cmd.Context())
	if err != nil {
		return err
	}

	for _, bucket := range buckets {
		fmt.Println(bucket.Name)
	}

	return saveState(client)
}

func runLs(cmd *cobra.Command, args []string) error {
	long, _ := cmd.Flags().GetBool("long")
	asTree, _ := cmd.Flags().GetBool("tree")

	client := newAPIClient()

	if err := ensureAuthorized(cmd.Context(), client); err != nil {
		return err
	}

	bucketID, err := client.ResolveBucketID(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	files, err := client.ListFileNames(cmd.Context(), bucketID)
	if err != nil {
		return err
	}

	switch {
	case asTree:
		printFileTree(cmd.OutOrStdout(), files, long)
	case long:
		fmt.Fprintf(cmd.OutOrStdout(), "%8s   %-13s   %s\n", "Size", "Date Uploaded", "Name")

		for _, f := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "%8s   %-13s   %s\n",
				formatSize(f.ContentLength), formatTime(f.UploadTime()), f.Name)
		}
	default:
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f.Name)
		}
	}

	return saveState(client)
}
