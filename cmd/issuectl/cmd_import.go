package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

var importExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

func newImportCmd() *cobra.Command {
	var issueTypeID int64

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Run every jpg/jpeg/png in a directory through the upload pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if issueTypeID <= 0 {
				return errors.New("--issue-type is required")
			}
			files, err := collectImages(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no images found in %s", args[0])
			}

			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			ids := make([]int64, len(files))
			for i := range ids {
				ids[i] = issueTypeID
			}

			var bar *progressbar.ProgressBar
			if f, ok := cmd.ErrOrStderr().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
				bar = progressbar.NewOptions(len(files),
					progressbar.OptionSetDescription("Importing "+filepath.Base(args[0])),
					progressbar.OptionSetWriter(f),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}

			report, err := app.Uploader.ProcessBatchWithProgress(cmd.Context(), files, ids, func(domain.FileOutcome) {
				if bar != nil {
					_ = bar.Add(1)
				}
			})
			if err != nil {
				return err
			}
			if bar != nil {
				_ = bar.Finish()
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().Int64Var(&issueTypeID, "issue-type", 0, "issue type id assigned to every imported image")
	return cmd
}

// collectImages lists supported images directly inside dir, sorted by name.
func collectImages(dir string) ([]domain.UploadFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var files []domain.UploadFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contentType, ok := importExtensions[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		files = append(files, domain.UploadFile{
			Filename:    entry.Name(),
			ContentType: contentType,
			Open: func() (io.ReadCloser, error) {
				return os.Open(path)
			},
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}
