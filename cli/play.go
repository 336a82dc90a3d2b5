package cli

import (
	"bufio"
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1rvyn/story-builder/models"
	"github.com/1rvyn/story-builder/playback"
	"github.com/1rvyn/story-builder/storyfile"
)

const playHelp = "number = choose, s = show choices, n = next, p = previous, b = back, r = restart, q = quit"

func newPlayCommand(app *App) *cobra.Command {
	var start int
	cmd := &cobra.Command{
		Use:   "play <story-id|file.yaml>",
		Short: "Play a story in the terminal",
		Long: `Play a saved story, or a story file, in the terminal. Decisions are
shown right away and chosen by number.

Commands:
  ` + playHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := loadStory(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			return play(app, story, start)
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "scene index to start from")
	return cmd
}

// play runs the text player until the input ends or the reader quits.
func play(app *App, story models.Story, start int) error {
	p, err := playback.NewPlayer(story, playback.WithStartIndex(start))
	if err != nil {
		return err
	}
	defer p.Close()

	out := app.Printer
	out.Heading("%s", story.Title)
	in := bufio.NewScanner(app.In)
	for {
		showScene(out, p)
		out.Muted("> ")
		if !in.Scan() {
			return in.Err()
		}

		cmd := strings.ToLower(strings.TrimSpace(in.Text()))
		moved := true
		switch cmd {
		case "":
			continue
		case "q", "quit":
			return nil
		case "s", "show":
			p.Reveal()
			continue
		case "h", "help", "?":
			out.Muted(playHelp)
			continue
		case "n", "next":
			moved = p.Next()
		case "p", "prev", "previous":
			moved = p.Previous()
		case "b", "back":
			moved = p.Back()
		case "r", "restart":
			p.Restart()
		default:
			n, err := strconv.Atoi(cmd)
			if err != nil {
				out.Warning("unknown command %q (%s)", cmd, playHelp)
				continue
			}
			if err := choose(p, n); err != nil {
				if errors.Is(err, playback.ErrDanglingDecision) || errors.Is(err, playback.ErrUnresolvableTarget) {
					out.Warning("%v", err)
					continue
				}
				out.Warning("no choice %d", n)
				continue
			}
		}
		if !moved {
			out.Muted("you can't go that way")
		}
	}
}

// loadStory reads a .yaml/.yml path as a story file and anything else as
// a story id.
func loadStory(ctx context.Context, app *App, arg string) (models.Story, error) {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml":
		return storyfile.Read(arg)
	}
	story, err := app.Stories.Get(ctx, arg)
	if err != nil {
		return models.Story{}, lookupError(err)
	}
	return story, nil
}

// choose follows the nth decision, counting from 1.
func choose(p *playback.Player, n int) error {
	decisions := p.CurrentScene().Decisions
	if n < 1 || n > len(decisions) {
		return playback.ErrDecisionNotFound
	}
	return p.Select(decisions[n-1].ID)
}

func showScene(out *Printer, p *playback.Player) {
	p.Reveal()
	state := p.State()
	scene := p.CurrentScene()

	out.Line("")
	out.Heading("Scene %d of %d", state.SceneIndex+1, len(p.Story().Scenes))
	if scene.Background != nil {
		out.Muted("background: %s", *scene.Background)
	}
	for _, a := range scene.Assets {
		out.Muted("%s %s at (%.0f, %.0f)", a.Type, a.AssetID, a.Position.X, a.Position.Y)
	}
	if scene.AudioURL != nil {
		out.Muted("narration: %s", *scene.AudioURL)
	}

	switch {
	case scene.HasDecisions():
		out.Line("What happens next?")
		for i, d := range scene.Decisions {
			out.Choice(i+1, d.Text)
		}
	case p.IsLast():
		out.Line("The End")
	}
}
