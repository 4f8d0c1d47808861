package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/williamokano/mysql_backuper/pkg/backup"
	"github.com/williamokano/mysql_backuper/pkg/config"
	"github.com/williamokano/mysql_backuper/pkg/rotation"
	"github.com/williamokano/mysql_backuper/pkg/storage"
)

func newListCmd(opts *options) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local backups and, with --remote, the objects in each destination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if err := listLocal(opts.stdout, cfg); err != nil {
				return err
			}

			if remote {
				listRemote(cmd.Context(), opts.stdout, cfg, log)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "also list enabled remote destinations")

	return cmd
}

func listLocal(out io.Writer, cfg *config.Config) error {
	files, err := rotation.ListLocal(cfg.BackupDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Local backups in %s (keeping %d)\n", cfg.BackupDir, cfg.BackupsToKeep)
	kept, drop := rotation.Plan(files, cfg.BackupsToKeep)
	printFiles(out, append(kept, drop...), len(kept), filepath.Base)

	return nil
}

func listRemote(ctx context.Context, out io.Writer, cfg *config.Config, log zerolog.Logger) {
	configs, invalid := backup.Destinations(cfg)
	for name, err := range invalid {
		fmt.Fprintf(out, "\n%s: skipped: %v\n", name, err)
	}

	opened, failed := storage.OpenAll(ctx, storage.NewFactory(), configs)
	defer storage.CloseAll(opened)

	for name, err := range failed {
		fmt.Fprintf(out, "\n%s: unavailable: %v\n", name, err)
	}

	for _, o := range opened {
		prefix := storage.ListPrefix(o.Config.Prefix)
		objects, err := o.Backend.List(ctx, prefix)
		if err != nil {
			log.Error().Err(err).Str("backend", o.Config.Name).Msg("failed to list destination")
			fmt.Fprintf(out, "\n%s: list failed: %v\n", o.Config.Name, err)
			continue
		}

		fmt.Fprintf(out, "\n%s (%s) %s\n", o.Config.Name, o.Config.Type, prefix)
		sort.SliceStable(objects, func(i, j int) bool {
			return objects[i].ModTime.After(objects[j].ModTime)
		})
		printFiles(out, objects, remoteKeep(o.Config, cfg.BackupsToKeep), func(p string) string { return p })
	}
}

// remoteKeep is the number of rows retention would keep on a destination;
// without retention nothing there expires
func remoteKeep(dest storage.Config, keep int) int {
	if !dest.Retention {
		return math.MaxInt
	}
	return keep
}

// printFiles writes one row per file; rows past keep are marked as due for
// deletion
func printFiles(out io.Writer, files []storage.FileInfo, keep int, display func(string) string) {
	if len(files) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tDATABASES\tSIZE\tAGE\t")
	for i, f := range files {
		databases := "-"
		if c, err := rotation.ParseArtifactName(f.Path); err == nil {
			databases = c.NamePart
		}

		marker := ""
		if i >= keep {
			marker = "(expired)"
		}

		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
			display(f.Path),
			databases,
			humanize.Bytes(uint64(f.Size)),
			humanize.Time(f.ModTime),
			marker,
		)
	}
	tw.Flush()
}
