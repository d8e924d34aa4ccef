package cmd

import (
	"context"
	"fmt"
	"strings"

	"media-assist/domain/language"

	"github.com/spf13/cobra"
)

var translateTarget string

var translateCmd = &cobra.Command{
	Use:   "translate <text...>",
	Short: "Translate text into another language",
	Long: `Translate text with Google Cloud Translation.

The target is a language code such as fr, hi or pt-BR. Without --to the
translation.default_target setting is used. Run "media-assist languages"
to list the supported codes.

Example:
  media-assist translate --to fr "Where is the library?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranslate,
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the languages text can be translated into",
	RunE:  runLanguages,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(languagesCmd)
	translateCmd.Flags().StringVar(&translateTarget, "to", "", "Target language code (default from translation.default_target)")
}

// TextTranslator translates text
type TextTranslator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// LanguageLister lists supported translation targets
type LanguageLister interface {
	Languages(ctx context.Context) ([]language.Language, error)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	svc, err := newTranslationService(cmd.Context(), cfg, GetLogger())
	if err != nil {
		return err
	}
	return RunTranslateWithDependencies(cmd.Context(), svc, strings.Join(args, " "), translateTarget, DefaultOutput)
}

// RunTranslateWithDependencies runs the translate command with injected dependencies (for testing)
func RunTranslateWithDependencies(ctx context.Context, translator TextTranslator, text, target string, output OutputWriter) error {
	translated, err := translator.Translate(ctx, text, target)
	if err != nil {
		return err
	}
	fmt.Fprintln(output, "Translated Text:")
	fmt.Fprintln(output, translated)
	return nil
}

func runLanguages(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	svc, err := newTranslationService(cmd.Context(), cfg, GetLogger())
	if err != nil {
		return err
	}
	return RunLanguagesWithDependencies(cmd.Context(), svc, DefaultOutput)
}

// RunLanguagesWithDependencies runs the languages command with injected dependencies (for testing)
func RunLanguagesWithDependencies(ctx context.Context, lister LanguageLister, output OutputWriter) error {
	langs, err := lister.Languages(ctx)
	if err != nil {
		return err
	}
	if len(langs) == 0 {
		fmt.Fprintln(output, "No languages available.")
		return nil
	}

	rows := make([][]string, 0, len(langs))
	for _, l := range langs {
		rows = append(rows, []string{l.Code, l.Name})
	}
	fmt.Fprint(output, renderTable([]string{"Code", "Language"}, rows))
	fmt.Fprintf(output, "%d languages\n", len(langs))
	return nil
}
