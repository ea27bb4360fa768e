package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nihongowow/arcade/internal/kana"
	"github.com/nihongowow/arcade/internal/nihongo"
)

func newKanaCmd(_ *app) *cobra.Command {
	var (
		typ    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "kana",
		Short: "Print the embedded kana table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := kana.All()
			var v any = t
			switch nihongo.KanaType(typ) {
			case "":
			case nihongo.KanaHiragana:
				v = t.Hiragana
			case nihongo.KanaKatakana:
				v = t.Katakana
			default:
				return fmt.Errorf("unknown kana type %q", typ)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(v); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "hiragana or katakana (default both)")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "yaml or json")
	return cmd
}
