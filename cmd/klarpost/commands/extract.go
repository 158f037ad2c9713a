package commands

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/klarpost/klarpost/internal/config"
	"github.com/klarpost/klarpost/internal/domain"
	"github.com/klarpost/klarpost/internal/extract"
	"github.com/klarpost/klarpost/internal/observability"
	"github.com/klarpost/klarpost/internal/ocr"
)

var extractOutputPath string

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract text from a document",
	Long:  "Run the extraction pipeline on a PDF, photo, or text file and print the recognized text.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutputPath, "output", "o", "", "write extracted text to a file instead of stdout")
	rootCmd.AddCommand(extractCmd)
}

// cliLogger builds a console logger for CLI runs.
func cliLogger() *observability.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:  level,
		Format: "console",
		Output: os.Stderr,
	})
}

// loadDocument reads a file into the upload model, deriving the declared
// type from the extension.
func loadDocument(path string) (domain.UploadedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.UploadedDocument{}, fmt.Errorf("read file: %w", err)
	}
	return domain.UploadedDocument{
		Data:         data,
		DeclaredType: mime.TypeByExtension(filepath.Ext(path)),
		Filename:     filepath.Base(path),
	}, nil
}

// extractFile runs the full extraction pipeline with a progress bar.
func extractFile(ctx context.Context, path string) (string, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}

	doc, err := loadDocument(path)
	if err != nil {
		return "", err
	}

	logger := cliLogger()
	fitzDoc := extract.NewFitzDocument()
	engine := ocr.NewTesseractEngine()
	svc := extract.NewService(fitzDoc, fitzDoc, engine, extract.Options{
		TextLayerMinChars: cfg.Extraction.TextLayerMinChars,
		MaxOCRPages:       cfg.Extraction.MaxOCRPages,
		RenderScale:       cfg.Extraction.RenderScale,
		MaxImageDimension: cfg.Extraction.MaxImageDimension,
		Languages:         cfg.Extraction.Languages,
		PageWorkers:       cfg.Extraction.PageWorkers,
		AttemptTimeout:    cfg.Extraction.AttemptTimeout,
	}, logger)

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("extracting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)

	text, err := svc.Extract(ctx, doc, func(p extract.Progress) {
		_ = bar.Set(int(p.Fraction * 100))
	})
	if err != nil {
		fmt.Fprint(os.Stderr, "\n")
		return "", err
	}
	_ = bar.Finish()
	return text, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	text, err := extractFile(ctx, args[0])
	if err != nil {
		return err
	}

	if extractOutputPath != "" {
		if err := os.WriteFile(extractOutputPath, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		success("extracted text written to %s", extractOutputPath)
		return nil
	}

	heading("Extracted text")
	fmt.Println(text)
	return nil
}

// heading prints a section heading, colored unless disabled.
func heading(format string, args ...interface{}) {
	if noColor {
		fmt.Printf("== %s ==\n", fmt.Sprintf(format, args...))
		return
	}
	color.New(color.FgCyan, color.Bold).Printf("== %s ==\n", fmt.Sprintf(format, args...))
}

// success prints a confirmation line, colored unless disabled.
func success(format string, args ...interface{}) {
	if noColor {
		fmt.Printf("✓ %s\n", fmt.Sprintf(format, args...))
		return
	}
	color.New(color.FgGreen).Printf("✓ %s\n", fmt.Sprintf(format, args...))
}
