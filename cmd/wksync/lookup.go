package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/wksync/pkg/db"
	"github.com/japaniel/wksync/pkg/lookup"
)

func newLookupCmd(a *app) *cobra.Command {
	var reading, characters string
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Find subjects by reading or by characters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (reading == "") == (characters == "") {
				return errors.New("exactly one of --reading or --characters is required")
			}
			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			var rows []db.IndexRow
			if reading != "" {
				rows, err = store.SubjectsByReading(cmd.Context(), lookup.ToHiragana(reading))
			} else {
				rows, err = store.SubjectsByCharacters(cmd.Context(), characters)
			}
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				printf(cmd, "No subjects found.\n")
				return nil
			}
			for _, row := range rows {
				meaning, err := store.PrimaryMeaning(cmd.Context(), row.SubjectType, row.SubjectID)
				if err != nil {
					return err
				}
				printf(cmd, "%d\t%s\tlevel %d\t%s\t%s\n", row.SubjectID, row.SubjectType, row.Level,
					meaning, strings.Join(row.ReadingTexts, "、"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reading, "reading", "", "reading in kana (katakana is converted)")
	cmd.Flags().StringVar(&characters, "characters", "", "exact characters of a subject")
	return cmd
}

func newKanjiMapCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kanji-map TEXT",
		Short: "Map each character of TEXT to its kanji subject id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := lookup.KanjiMap(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			for _, e := range entries {
				printf(cmd, "%s\t%d\n", e.Character, e.SubjectID)
			}
			return nil
		},
	}
}

func newAnnotateCmd(a *app) *cobra.Command {
	var text, pageURL string
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Tokenize text or a web article and link words to subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (text == "") == (pageURL == "") {
				return errors.New("exactly one of --text or --url is required")
			}
			if pageURL != "" {
				article, err := lookup.ExtractArticle(cmd.Context(), nil, pageURL)
				if err != nil {
					return err
				}
				printf(cmd, "Title: %s\n", article.Title)
				text = article.Text
			}

			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			analyzer, err := lookup.NewAnalyzer()
			if err != nil {
				return fmt.Errorf("create analyzer: %w", err)
			}
			annotator := &lookup.Annotator{Index: store, Analyzer: analyzer}
			anns, err := annotator.Annotate(cmd.Context(), text)
			if err != nil {
				return err
			}

			matched := 0
			for _, ann := range anns {
				if len(ann.Subjects) == 0 {
					continue
				}
				matched++
				ids := make([]string, 0, len(ann.Subjects))
				for _, s := range ann.Subjects {
					ids = append(ids, fmt.Sprintf("%s:%d", s.SubjectType, s.SubjectID))
				}
				printf(cmd, "%s\t%s\t%s\t%s\n", ann.Token.Surface, ann.Token.Reading, ann.MatchedBy, strings.Join(ids, ","))
			}
			printf(cmd, "Matched %d of %d tokens.\n", matched, len(anns))
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Japanese text to annotate")
	cmd.Flags().StringVar(&pageURL, "url", "", "web article to fetch and annotate")
	return cmd
}
