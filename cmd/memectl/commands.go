package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tendant/meme-catalog/pkg/memecatalog"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid meme id %q", arg)
	}
	return id, nil
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List memes in insertion order",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := a.service.ListAssets(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tBLOB KEY\tCREATED")
			for _, asset := range assets {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", asset.ID, asset.Name, asset.BlobKey, asset.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Download a meme's payload",
		Long: `Download a meme's payload. Without --output the file is written to the
current directory under the blob key name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			payload, err := a.service.GetAssetPayload(cmd.Context(), id)
			if err != nil {
				return err
			}

			target := output
			if target == "" {
				target = payload.FileName
			}
			if target == "-" {
				_, err := cmd.OutOrStdout().Write(payload.Data)
				return err
			}
			if err := os.WriteFile(target, payload.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", target, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(payload.Data), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, or - for stdout")
	return cmd
}

func newCreateCmd(a *app) *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "create <name> <file>",
		Short: "Create a meme from a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[1], err)
			}
			if contentType == "" {
				contentType = mime.TypeByExtension(filepath.Ext(args[1]))
			}

			asset, err := a.service.CreateAsset(cmd.Context(), memecatalog.CreateAssetRequest{
				Name:        args[0],
				Data:        data,
				ContentType: contentType,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created meme %d (%s)\n", asset.ID, asset.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type stored with the blob (default: from file extension)")
	return cmd
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a meme",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			asset, err := a.service.UpdateAssetName(cmd.Context(), memecatalog.UpdateAssetNameRequest{ID: id, Name: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed meme %d to %s\n", asset.ID, asset.Name)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a meme and its payload",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			asset, err := a.service.DeleteAsset(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted meme %d (%s)\n", asset.ID, asset.Name)
			return nil
		},
	}
}
