package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/calebfollett/gemstream/internal/spmodel"
)

func inspectCmd() *cli.Command {
	var (
		modelPath string
		showVocab bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Summarize a SentencePiece model file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "path to the tokenizer model file",
				Destination: &modelPath,
			},
			&cli.BoolFlag{
				Name:        "vocab",
				Usage:       "dump every piece with id, score and kind",
				Destination: &showVocab,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, LoadConfig(), &modelPath, nil)
			if modelPath == "" {
				return fmt.Errorf("--model is required")
			}

			vocab, err := spmodel.LoadVocabularyFile(modelPath)
			if err != nil {
				return err
			}

			if showVocab {
				for i := 0; i < vocab.Len(); i++ {
					p := vocab.PieceAt(i)
					fmt.Printf("%6d  %-12s %10.4f  %s\n", i, kindName(p.Kind), p.Score, p.Text)
				}
				return nil
			}

			kinds := map[spmodel.PieceKind]int{}
			for i := 0; i < vocab.Len(); i++ {
				kinds[vocab.PieceAt(i).Kind]++
			}
			fmt.Printf("pieces:          %d\n", vocab.Len())
			fmt.Printf("max piece len:   %d\n", vocab.MaxPieceLen())
			fmt.Printf("unknown id:      %d\n", vocab.UnknownID)
			fmt.Printf("begin id:        %d\n", vocab.BeginID)
			fmt.Printf("end id:          %d\n", vocab.EndID)
			fmt.Printf("pad id:          %d\n", vocab.PadID)
			for _, k := range []spmodel.PieceKind{
				spmodel.KindNormal, spmodel.KindUnknown, spmodel.KindControl,
				spmodel.KindUserDefined, spmodel.KindByte,
			} {
				if kinds[k] > 0 {
					fmt.Printf("%-16s %d\n", kindName(k)+":", kinds[k])
				}
			}
			return nil
		},
	}
}

func kindName(k spmodel.PieceKind) string {
	switch k {
	case spmodel.KindNormal:
		return "normal"
	case spmodel.KindUnknown:
		return "unknown"
	case spmodel.KindControl:
		return "control"
	case spmodel.KindUserDefined:
		return "user-defined"
	case spmodel.KindByte:
		return "byte"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}
