package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/okian/devbasics/internal/domain/scoring"
	"github.com/okian/devbasics/internal/domain/survey"
)

func newPreviewCommand(_ *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "preview [answers.yaml]",
		Short: "Print the live preview for a set of answers",
		Long: "Reads form answers from a YAML or JSON file and prints the feature snapshot,\n" +
			"recommendation, progress and details. Without a file the default answers are used.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := survey.DefaultState()
			if len(args) == 1 {
				var err error
				if st, err = loadAnswers(args[0]); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(scoring.Evaluate(st))
		},
	}
}

// loadAnswers reads a survey.State from a YAML or JSON file. JSON input
// parses as YAML but keeps the API field names, so .json files are decoded
// with the json tags.
func loadAnswers(path string) (survey.State, error) {
	k := koanf.New("::")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return survey.State{}, fmt.Errorf("read answers %s: %w", path, err)
	}
	tag := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		tag = "json"
	}
	var st survey.State
	if err := k.UnmarshalWithConf("", &st, koanf.UnmarshalConf{Tag: tag}); err != nil {
		return survey.State{}, fmt.Errorf("decode answers %s: %w", path, err)
	}
	return st, nil
}
