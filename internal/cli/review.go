package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/spicewatch/internal/model"
)

// Decision is the outcome of reviewing one anomaly interactively.
type Decision struct {
	Status model.AnomalyStatus
	Note   string
	Skip   bool
	Quit   bool
}

// ReviewPrompter walks a reviewer through pending anomalies.
type ReviewPrompter struct {
	reader *NonBlockingReader
	writer io.Writer
}

// NewReviewPrompter creates a prompter reading answers from in.
func NewReviewPrompter(in io.Reader, out io.Writer) *ReviewPrompter {
	return &ReviewPrompter{reader: NewNonBlockingReader(in), writer: out}
}

// Ask shows an anomaly and reads the reviewer's decision and optional note.
func (p *ReviewPrompter) Ask(ctx context.Context, a model.Anomaly) (Decision, error) {
	fmt.Fprintln(p.writer, RenderAnomaly(a))

	for {
		fmt.Fprint(p.writer, FormatPrompt("[c]onfirm, [d]ismiss, [r]eviewed, [s]kip, [q]uit"))
		answer, err := p.reader.ReadLine(ctx)
		if err != nil {
			return Decision{}, err
		}

		var d Decision
		switch strings.ToLower(answer) {
		case "c", "confirm":
			d.Status = model.StatusConfirmed
		case "d", "dismiss":
			d.Status = model.StatusDismissed
		case "r", "reviewed":
			d.Status = model.StatusReviewed
		case "s", "skip", "":
			return Decision{Skip: true}, nil
		case "q", "quit":
			return Decision{Quit: true}, nil
		default:
			fmt.Fprintln(p.writer, FormatWarning(fmt.Sprintf("Unknown choice %q", answer)))
			continue
		}

		fmt.Fprint(p.writer, FormatPrompt("Note (optional)"))
		if d.Note, err = p.reader.ReadLine(ctx); err != nil {
			return Decision{}, err
		}
		return d, nil
	}
}
