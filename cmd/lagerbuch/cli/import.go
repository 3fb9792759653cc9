package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newImportCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import supplier invoices, bank statements or count sheets",
	}
	cmd.AddCommand(newImportInvoicesCommand(a))
	cmd.AddCommand(newImportBookingsCommand(a))
	cmd.AddCommand(newImportCountsCommand(a))
	return cmd
}

func newImportInvoicesCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "invoices [file...]",
		Short: "Import extracted supplier invoice texts",
		Long: "Reads layout-preserved text extractions of supplier invoice PDFs\n" +
			"and records them in the ledger. Already-imported invoices are skipped.\n" +
			"Without arguments, imports every .txt file under <upload-dir>/Grihed.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := uploadPaths(args, a.Config.UploadDir, "Grihed", ".txt")
			if err != nil {
				return err
			}
			created, skipped := 0, 0
			for _, path := range paths {
				text, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				parsed, err := a.Invoices.ImportFile(cmd.Context(), stem(path), string(text))
				if err != nil {
					a.Logger.Error("invoice not imported", slog.String("file", path), slog.Any("error", err))
					continue
				}
				if parsed {
					created++
				} else {
					skipped++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d invoices, %d already present\n", created, skipped)
			return nil
		},
	}
}

func newImportBookingsCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "bookings [file.csv...]",
		Short: "Import bank statement CSV exports",
		Long: "Imports Sparkasse CSV account exports. Without arguments, imports\n" +
			"every .csv file under <upload-dir>/Sparkasse.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := uploadPaths(args, a.Config.UploadDir, "Sparkasse", ".csv")
			if err != nil {
				return err
			}
			total := 0
			for _, path := range paths {
				if !strings.EqualFold(filepath.Ext(path), ".csv") {
					a.Logger.Error("not a CSV file", slog.String("file", path))
					continue
				}
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				added, err := a.Bank.Import(cmd.Context(), f)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				total += added
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d new bookings\n", total)
			return nil
		},
	}
}

func newImportCountsCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "counts [file.yaml...]",
		Short: "Import inventory count sheets",
		Long: "Reads hand-written inventory count sheets. The file name is the\n" +
			"count date; a date that was already imported is skipped, since\n" +
			"updating a counted snapshot is not supported. Without arguments,\n" +
			"imports every .yaml file under <upload-dir>/Lagerzaehlungen.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := uploadPaths(args, a.Config.UploadDir, "Lagerzaehlungen", ".yaml")
			if err != nil {
				return err
			}
			created := 0
			for _, path := range paths {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				_, ok, err := a.Counts.Import(cmd.Context(), stem(path), f)
				f.Close()
				if err != nil {
					a.Logger.Error("count sheet not imported", slog.String("file", path), slog.Any("error", err))
					continue
				}
				if ok {
					created++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d count sheets\n", created)
			return nil
		},
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// uploadPaths returns the explicitly named files, or all files with the given
// extension in the upload subdirectory when none were named.
func uploadPaths(args []string, uploadDir, subdir, ext string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	dir := filepath.Join(uploadDir, subdir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
