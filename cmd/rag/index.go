package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Bring the page file up to date with the document folder",
	Long: `Scan the document folder and update the page file.

A missing page file is built from scratch, a deleted document forces a full
rebuild, new or modified documents are appended and an unchanged folder is
left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newRagService(cmd.Context(), appCfg, serviceOptions{})
		if err != nil {
			return err
		}
		res, err := svc.Refresh(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "action: %s\n", res.Action)
		printFiles(cmd, "added", res.Added)
		printFiles(cmd, "deleted", res.Deleted)
		printFiles(cmd, "unreadable", res.Failed)
		fmt.Fprintf(out, "chunks added: %d\n", res.ChunksAdded)
		fmt.Fprintf(out, "total chunks: %d\n", res.TotalChunks)
		return nil
	},
}

func printFiles(cmd *cobra.Command, label string, files []string) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d): %s\n", label, len(files), strings.Join(files, ", "))
}
