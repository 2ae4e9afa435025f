package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuanying/novel2epub/internal/bookfile"
	"github.com/yuanying/novel2epub/internal/epub"
)

var rootCmd = &cobra.Command{
	Use:   "novel2epub",
	Short: "Package a web-novel description into an EPUB file",
	Long: `novel2epub reads a JSON book description (metadata, volumes,
chapters, stylesheets and a cover) and packages it into a single
EPUB archive. Remote images referenced from chapter markup are
fetched and embedded; images that cannot be retrieved are dropped
without failing the build.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]
		outputPath, _ := cmd.Flags().GetString("output")
		lang, _ := cmd.Flags().GetString("language")

		if outputPath == "" {
			outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".epub"
		}

		doc, err := bookfile.Load(inputPath)
		if err != nil {
			return err
		}

		log.Printf("Packaging: %s -> %s", inputPath, outputPath)

		book := epub.NewBook(epub.BookOptions{Language: lang})
		if err := doc.Build(book, filepath.Dir(inputPath)); err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		if lang != "" {
			// The flag beats the book file's language.
			if err := book.SetInfo("language", lang, nil); err != nil {
				return err
			}
		}
		if err := book.SaveFile(outputPath); err != nil {
			return fmt.Errorf("save failed: %w", err)
		}

		for _, d := range book.Diagnostics() {
			log.Printf("diagnostic: %s: %s", d.Kind, d.Detail)
		}
		log.Printf("Done: %s", outputPath)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringP("output", "o", "", "Output file path (default: input with .epub extension)")
	rootCmd.Flags().StringP("language", "l", "", "Book language (default: en, or the book file's language)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
