package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/calebfollett/gemstream/internal/spmodel"
	"github.com/calebfollett/gemstream/internal/tokenizer"
)

func encodeCmd() *cli.Command {
	var (
		modelPath  string
		maxLen     int64
		showPieces bool
	)

	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode text into token ids with a SentencePiece model",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "path to the tokenizer model file",
				Destination: &modelPath,
			},
			&cli.Int64Flag{
				Name:        "max-length",
				Aliases:     []string{"l"},
				Usage:       "output sequence length (padded or truncated)",
				Value:       128,
				Destination: &maxLen,
			},
			&cli.BoolFlag{
				Name:        "pieces",
				Usage:       "print the piece text next to each id",
				Destination: &showPieces,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, LoadConfig(), &modelPath, &maxLen)
			if modelPath == "" {
				return fmt.Errorf("--model is required")
			}
			text := strings.Join(cmd.Args().Slice(), " ")

			vocab, err := spmodel.LoadVocabularyFile(modelPath)
			if err != nil {
				return err
			}
			tok := tokenizer.NewUnigram(vocab)
			ids, err := tok.Encode(text, int(maxLen))
			if err != nil {
				return err
			}

			if showPieces {
				for _, id := range ids {
					fmt.Printf("%6d  %s\n", id, vocab.PieceAt(id).Text)
				}
				return nil
			}
			out := make([]string, len(ids))
			for i, id := range ids {
				out[i] = fmt.Sprintf("%d", id)
			}
			fmt.Println(strings.Join(out, " "))
			return nil
		},
	}
}
