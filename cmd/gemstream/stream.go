package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/calebfollett/gemstream/internal/engine"
	"github.com/calebfollett/gemstream/internal/stream"
)

func streamCmd() *cli.Command {
	var (
		reply          string
		chunkSize      int64
		delayMillis    int64
		timeoutSeconds int64
	)

	return &cli.Command{
		Name:      "stream",
		Usage:     "Run a prompt through the streaming pipeline with the loopback engine",
		ArgsUsage: "<prompt>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "reply",
				Usage:       "canned reply text (defaults to echoing the prompt)",
				Destination: &reply,
			},
			&cli.Int64Flag{
				Name:        "chunk-size",
				Usage:       "fragment size in bytes",
				Value:       3,
				Destination: &chunkSize,
			},
			&cli.Int64Flag{
				Name:        "delay",
				Usage:       "delay between fragments in milliseconds",
				Destination: &delayMillis,
			},
			&cli.Int64Flag{
				Name:        "timeout",
				Usage:       "session timeout in seconds",
				Value:       300,
				Destination: &timeoutSeconds,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyStreamConfig(cmd, LoadConfig(), &timeoutSeconds)
			prompt := cmd.Args().First()
			if prompt == "" {
				return fmt.Errorf("a prompt argument is required")
			}

			eng := &engine.Loopback{
				Reply:     reply,
				ChunkSize: int(chunkSize),
				Delay:     time.Duration(delayMillis) * time.Millisecond,
			}
			sess := stream.NewSession(stream.Config{
				Timeout: time.Duration(timeoutSeconds) * time.Second,
			})
			if err := sess.Start(ctx, eng, engine.NewTextRequest(prompt)); err != nil {
				return err
			}

			for ev := range sess.Events() {
				if ev.Err != nil {
					_, _ = fmt.Fprintln(os.Stderr, ev.Err)
					continue
				}
				fmt.Print(ev.Text)
			}
			fmt.Println()
			fmt.Printf("session %s: %s\n", sess.ID(), sess.State())
			return nil
		},
	}
}
