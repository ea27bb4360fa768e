package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/provider"
	"github.com/nihongowow/arcade/internal/reading"
)

// fillReadings reads a vocabulary CSV and fills its empty readings.
func fillReadings(path string) ([]byte, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	analyzer, err := reading.Shared()
	if err != nil {
		return nil, 0, fmt.Errorf("loading dictionary: %w", err)
	}
	var buf bytes.Buffer
	n, err := analyzer.FillCSV(f, &buf)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return buf.Bytes(), n, nil
}

func newReadingsCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "readings <file.csv>",
		Short: "Fill empty readings in a vocabulary CSV",
		Long: `Fill empty reading cells of a vocabulary CSV from its expression
column. A reading column is added when missing. The result goes to
stdout unless --output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, n, err := fillReadings(args[0])
			if err != nil {
				return err
			}
			a.logger.Info("filled readings", "file", args[0], "count", n)

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "filled %d readings into %s\n", n, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to this file")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		token  string
		noFill bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a vocabulary CSV into the backend",
		Long: `Upload a vocabulary CSV to the backend's import endpoint as an
admin. Empty readings are filled first unless --no-fill is set.

The admin token comes from --token or ARCADE_TOKEN.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("ARCADE_TOKEN")
			}
			if token == "" && !dryRun {
				return errors.New("an admin token is required (--token or ARCADE_TOKEN)")
			}

			var data []byte
			var err error
			if noFill {
				data, err = os.ReadFile(args[0])
			} else {
				var n int
				if data, n, err = fillReadings(args[0]); err == nil {
					a.logger.Info("filled readings", "file", args[0], "count", n)
				}
			}
			if err != nil {
				return err
			}
			if dryRun {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			cfg, err := a.config()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			api := provider.New(cfg.APIURL, a.timeout, a.logger)
			res, err := importCSV(ctx, api, token, filepath.Base(args[0]), bytes.NewReader(data))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d, skipped %d\n", res.Imported, res.Skipped)
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  %s\n", e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Admin access token")
	cmd.Flags().BoolVar(&noFill, "no-fill", false, "Upload the file as is")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the prepared CSV instead of uploading")
	return cmd
}

// importCSV uploads csv once the token is known to belong to an admin.
func importCSV(ctx context.Context, api *provider.Client, token, filename string, csv io.Reader) (provider.ImportResult, error) {
	sess := nihongo.Session{Token: token}
	user, err := api.Me(ctx, sess)
	if err != nil {
		return provider.ImportResult{}, fmt.Errorf("checking token: %w", err)
	}
	if !user.IsAdmin {
		return provider.ImportResult{}, fmt.Errorf("%s is not an admin", user.Username)
	}
	res, err := api.ImportVocabulary(ctx, sess, filename, csv)
	if err != nil {
		return provider.ImportResult{}, fmt.Errorf("importing %s: %w", filename, err)
	}
	return res, nil
}
