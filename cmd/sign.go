package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	appsign "media-assist/application/sign"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var signOutDir string

var signCmd = &cobra.Command{
	Use:   "sign <word>",
	Short: "Spell a word with sign-language images",
	Long: `Look up the sign-language image for every letter of a word.

Images are read from sign.image_dir using sign.file_pattern
(A_test.jpg, B_test.jpg, ...). With --out the images are copied there.

Example:
  media-assist sign hello --out ./hello`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)
	signCmd.Flags().StringVar(&signOutDir, "out", "", "Directory to copy the letter images to")
}

// Speller spells words with sign-language images
type Speller interface {
	Spell(word string) ([]appsign.LetterResult, error)
}

func runSign(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	return RunSignWithDependencies(newSignService(cfg, GetLogger()), strings.Join(args, " "), signOutDir, DefaultOutput)
}

// RunSignWithDependencies runs the sign command with injected dependencies (for testing)
func RunSignWithDependencies(speller Speller, word, outDir string, output OutputWriter) error {
	results, err := speller.Spell(word)
	if err != nil {
		return err
	}

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	fmt.Fprintf(output, "Translating '%s' into sign language:\n", word)
	for i, res := range results {
		if !res.Found() {
			fmt.Fprintf(output, "  No image found for letter: %c\n", res.Letter)
			continue
		}
		if outDir == "" {
			fmt.Fprintf(output, "  Letter: %c (%s, %s)\n", res.Letter, res.Image.ContentType, humanize.Bytes(uint64(len(res.Image.Data))))
			continue
		}

		path := filepath.Join(outDir, fmt.Sprintf("%02d_%c%s", i+1, res.Letter, imageExtension(res.Image.ContentType)))
		if err := os.WriteFile(path, res.Image.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write image for %c: %w", res.Letter, err)
		}
		fmt.Fprintf(output, "  Letter: %c -> %s\n", res.Letter, path)
	}
	return nil
}

func imageExtension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	default:
		return ".img"
	}
}
