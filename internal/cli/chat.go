package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/plantbot/internal/elicit"
	"github.com/HendryAvila/plantbot/internal/history"
	"github.com/HendryAvila/plantbot/internal/server"
)

// NewChatCmd creates the 'chat' command: the guided dialogue on the terminal.
func NewChatCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Run a guided formulation in the terminal",
		Long: `Talk to the formulation scientist line by line. Type 'New' to start a
formulation or 'Add <name>' to characterize a new protein. When the last
question is answered you are asked for a recipe name; press Enter to keep
the suggested one. Type 'quit' to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			app, cleanup, err := server.Open(cmd.Context(), cfg, terminalNamer(in, out))
			defer cleanup()
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), app, in, out)
		},
	}
}

// terminalNamer asks for the recipe name on the same input stream.
func terminalNamer(in *bufio.Scanner, out io.Writer) elicit.Namer {
	return elicit.NamerFunc(func(ctx context.Context, d elicit.Draft) (string, error) {
		fmt.Fprintf(out, "Recipe name [%s]: ", history.DefaultName(d.Source))
		if !in.Scan() {
			return "", in.Err()
		}
		return strings.TrimSpace(in.Text()), nil
	})
}

func runChat(ctx context.Context, app *server.App, in *bufio.Scanner, out io.Writer) error {
	sess := app.Sessions.Open("")
	fmt.Fprintln(out, elicit.Welcome)

	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		reply, err := app.Machine.Step(ctx, sess, line)
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply.Text)
	}
}
