package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/Mvlo566/POKETL/internal/database"
	"github.com/Mvlo566/POKETL/internal/model"
)

// MarkdownWriter outputs reports in Markdown, built with nao1215/markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteRun outputs the run summary with an outcome chart.
func (w *MarkdownWriter) WriteRun(run *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("poketl Run Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Listing", "`" + run.FirstURL + "`"},
			{"Started", run.StartedAt.Format(timeLayout)},
			{"Elapsed", run.Elapsed().Round(time.Millisecond).String()},
			{"Pages", strconv.Itoa(run.Pages)},
			{"Status", runStatus(run.Error, !run.FinishedAt.IsZero())},
		},
	})
	md.PlainText("")

	w.writeOutcomes(md, run)
	w.writeTournaments(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, run *model.RunSummary) {
	md.H2("Outcomes")
	md.PlainText("")

	rows := make([][]string, 0, len(model.Outcomes)+1)
	for _, o := range model.Outcomes {
		rows = append(rows, []string{outcomeLabel(o), strconv.Itoa(run.Count(o))})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(run.Tournaments)) + "**"})
	md.Table(markdown.TableSet{Header: []string{"Outcome", "Tournaments"}, Rows: rows})
	md.PlainText("")

	if len(run.Tournaments) > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Tournament Outcomes"),
			piechart.WithShowData(true),
		)
		for _, o := range model.Outcomes {
			if n := run.Count(o); n > 0 {
				chart.LabelAndIntValue(outcomeLabel(o), uint64(n)) //nolint:gosec // counts are never negative
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case run.Error != "":
		md.Cautionf("The run stopped early: %s", run.Error)
	case run.Count(model.OutcomeFailedLayout) > 0:
		md.Warningf("%d tournament(s) had an unrecognized pairings layout and were not written.",
			run.Count(model.OutcomeFailedLayout))
	case run.Count(model.OutcomeWritten) == 0:
		md.Note("No new tournament was written.")
	default:
		players, decklists, matches := run.Totals()
		md.Tip(strconv.Itoa(run.Count(model.OutcomeWritten)) + " new tournament(s): " +
			strconv.Itoa(players) + " players, " + strconv.Itoa(decklists) + " decklists, " +
			strconv.Itoa(matches) + " matches.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeTournaments(md *markdown.Markdown, run *model.RunSummary) {
	if len(run.Tournaments) == 0 {
		return
	}
	md.H2("Tournaments")
	md.PlainText("")

	rows := make([][]string, 0, len(run.Tournaments))
	for _, t := range run.Tournaments {
		rows = append(rows, []string{
			"`" + t.ID + "`",
			t.Name,
			outcomeLabel(t.Outcome),
			strconv.Itoa(t.Players),
			strconv.Itoa(t.Decklists),
			strconv.Itoa(t.Matches),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Name", "Outcome", "Players", "Decklists", "Matches"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteHistory outputs the ledger runs as a table.
func (w *MarkdownWriter) WriteHistory(runs []database.RunRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("poketl Crawl History")
	md.PlainText("")
	if len(runs) == 0 {
		md.PlainText("No runs recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Format(timeLayout),
			strconv.Itoa(r.Pages),
			strconv.Itoa(r.Written),
			strconv.Itoa(r.SkippedExisting),
			strconv.Itoa(r.SkippedEmpty),
			strconv.Itoa(r.FailedLayout),
			runStatus(r.Error, r.Finished()),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Run", "Started", "Pages", "Written", "Existing", "Empty", "Layout", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

// WriteTournament outputs a document's metadata, standings and decklists.
func (w *MarkdownWriter) WriteTournament(t *model.Tournament) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(t.Name)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"ID", "`" + t.ID + "`"},
			{"Date", t.Date},
			{"Organizer", t.Organizer},
			{"Format", t.Format},
			{"Players", strconv.Itoa(t.NbPlayers)},
			{"Decklists", strconv.Itoa(t.DecklistCount())},
			{"Matches", strconv.Itoa(len(t.Matches))},
			{"Distinct cards", strconv.Itoa(t.DistinctCards())},
		},
	})
	md.PlainText("")

	md.H2("Standings")
	md.PlainText("")
	players := standings(t.Players)
	rows := make([][]string, 0, len(players))
	for _, p := range players {
		rows = append(rows, []string{p.Placing.String(), p.Name, country(p), strconv.Itoa(deckSize(p))})
	}
	md.Table(markdown.TableSet{Header: []string{"Placing", "Player", "Country", "Cards"}, Rows: rows})
	md.PlainText("")

	for _, p := range players {
		if len(p.Decklist) == 0 {
			continue
		}
		var lines strings.Builder
		for _, item := range p.Decklist {
			fmt.Fprintf(&lines, "%d %s (%s)<br>", item.Count, item.Name, item.Type)
		}
		md.Details(p.Name, lines.String())
	}
	md.PlainText("")

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by poketl from play.limitlesstcg.com*")
}
