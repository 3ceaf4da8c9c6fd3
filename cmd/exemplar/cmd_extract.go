package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/felixgeelhaar/exemplar/internal/config"
	"github.com/felixgeelhaar/exemplar/internal/domain"
	"github.com/felixgeelhaar/exemplar/internal/extract"
	"github.com/felixgeelhaar/exemplar/internal/fixture"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	warnColor   = color.New(color.FgYellow, color.Bold)
	flagColor   = color.New(color.FgYellow)
	okColor     = color.New(color.FgGreen)
)

// cmdExtract runs the extraction engine on local files, no daemon needed
func cmdExtract(args []string) error {
	files, flags := splitArgs(args)
	if len(files) < 1 || len(files) > 2 {
		return fmt.Errorf("usage: exemplar extract <cases-file> [expected-file] [--json]")
	}

	casesText, expected, err := readInputs(files)
	if err != nil {
		return err
	}

	engine, err := localEngine()
	if err != nil {
		return err
	}
	result := engine.Extract(casesText, expected)

	if flags["json"] != "" {
		return writeSubmission(os.Stdout, result.Cases)
	}
	renderCases(os.Stdout, result.Strategy, result.Cases)
	return nil
}

// cmdGenerate asks the daemon to generate a problem
func cmdGenerate(args []string) error {
	words, flags := splitArgs(args)
	if len(words) == 0 {
		return fmt.Errorf("usage: exemplar generate <requirements> [--save]")
	}

	body := map[string]any{
		"requirements": strings.Join(words, " "),
		"save":         flags["save"] != "",
	}
	var resp struct {
		Generation struct {
			Draft    domain.ProblemDraft `json:"draft"`
			Cases    domain.TestCaseList `json:"cases"`
			Strategy string              `json:"strategy"`
			Provider string              `json:"provider"`
		} `json:"generation"`
		Fixture *struct {
			ID string `json:"id"`
		} `json:"fixture"`
	}

	fmt.Fprintln(os.Stderr, "Generating (this can take a minute)...")
	if err := daemonRequest(http.MethodPost, "/v1/generate", body, &resp); err != nil {
		return err
	}

	gen := resp.Generation
	headerColor.Printf("%s\n", gen.Draft.Title)
	fmt.Printf("Difficulty: %s   Provider: %s\n\n", gen.Draft.Difficulty, gen.Provider)
	if gen.Draft.Description != "" {
		fmt.Println(gen.Draft.Description)
		fmt.Println()
	}
	renderCases(os.Stdout, gen.Strategy, gen.Cases)

	if resp.Fixture != nil {
		okColor.Printf("\n✓ Saved as fixture set %s\n", resp.Fixture.ID)
	}
	return nil
}

// cmdFixture manages fixture sets through the daemon
func cmdFixture(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Fixture commands:

  exemplar fixture save <cases-file> [expected-file] [--title T]
  exemplar fixture list
  exemplar fixture show <id>
  exemplar fixture edit <id> <index> <input> <output>
  exemplar fixture export <id>
  exemplar fixture delete <id>`)
		return nil
	}

	rest := args[1:]
	switch args[0] {
	case "save":
		return cmdFixtureSave(rest)
	case "list":
		return cmdFixtureList()
	case "show":
		if len(rest) != 1 {
			return fmt.Errorf("usage: exemplar fixture show <id>")
		}
		return cmdFixtureShow(rest[0])
	case "edit":
		if len(rest) != 4 {
			return fmt.Errorf("usage: exemplar fixture edit <id> <index> <input> <output>")
		}
		return cmdFixtureEdit(rest[0], rest[1], rest[2], rest[3])
	case "export":
		if len(rest) != 1 {
			return fmt.Errorf("usage: exemplar fixture export <id>")
		}
		data, err := daemonRaw(http.MethodGet, "/v1/fixtures/"+rest[0]+"/export", nil)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("usage: exemplar fixture delete <id>")
		}
		if err := daemonRequest(http.MethodDelete, "/v1/fixtures/"+rest[0], nil, nil); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted %s\n", rest[0])
		return nil
	default:
		return fmt.Errorf("unknown fixture command: %s", args[0])
	}
}

// fixtureView is the daemon's fixture set payload
type fixtureView struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Strategy string              `json:"strategy"`
	Cases    domain.TestCaseList `json:"cases"`
}

func cmdFixtureSave(args []string) error {
	files, flags := splitArgs(args)
	if len(files) < 1 || len(files) > 2 {
		return fmt.Errorf("usage: exemplar fixture save <cases-file> [expected-file] [--title T]")
	}
	casesText, expected, err := readInputs(files)
	if err != nil {
		return err
	}

	var set fixtureView
	err = daemonRequest(http.MethodPost, "/v1/fixtures", fixture.ExtractRequest{
		Title:          flags["title"],
		CasesText:      casesText,
		ExpectedOutput: expected,
	}, &set)
	if err != nil {
		return err
	}

	okColor.Printf("✓ Saved fixture set %s\n\n", set.ID)
	renderCases(os.Stdout, set.Strategy, set.Cases)
	return nil
}

func cmdFixtureList() error {
	var resp struct {
		Fixtures []struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Strategy    string `json:"strategy"`
			Cases       int    `json:"cases"`
			NeedsReview int    `json:"needs_review"`
		} `json:"fixtures"`
	}
	if err := daemonRequest(http.MethodGet, "/v1/fixtures", nil, &resp); err != nil {
		return err
	}

	if len(resp.Fixtures) == 0 {
		fmt.Println("No fixture sets yet. Save one with 'exemplar fixture save'.")
		return nil
	}

	for _, f := range resp.Fixtures {
		review := ""
		if f.NeedsReview > 0 {
			review = flagColor.Sprintf("  ⚠ %d to review", f.NeedsReview)
		}
		fmt.Printf("%s  %-24s %-16s %3d cases%s\n", f.ID, f.Title, f.Strategy, f.Cases, review)
	}
	return nil
}

func cmdFixtureShow(id string) error {
	var set fixtureView
	if err := daemonRequest(http.MethodGet, "/v1/fixtures/"+id, nil, &set); err != nil {
		return err
	}
	headerColor.Printf("%s\n", set.Title)
	fmt.Printf("ID: %s\n\n", set.ID)
	renderCases(os.Stdout, set.Strategy, set.Cases)
	return nil
}

func cmdFixtureEdit(id, rawIndex, input, output string) error {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return fmt.Errorf("case index must be an integer: %q", rawIndex)
	}

	var set fixtureView
	err = daemonRequest(http.MethodPut, fmt.Sprintf("/v1/fixtures/%s/cases/%d", id, index),
		map[string]string{"input": input, "output": output}, &set)
	if err != nil {
		return err
	}

	okColor.Printf("✓ Updated case %d\n\n", index)
	renderCases(os.Stdout, set.Strategy, set.Cases)
	return nil
}

// renderCases prints the cases followed by the review banner
func renderCases(w io.Writer, strategy string, cases domain.TestCaseList) {
	fmt.Fprintf(w, "Strategy: %s   Cases: %d\n\n", strategy, len(cases))

	for i, c := range cases {
		marker := ""
		if c.NeedsManualReview {
			marker = flagColor.Sprint("  ⚠ needs review")
		}
		headerColor.Fprintf(w, "#%d", i)
		fmt.Fprintf(w, "%s\n", marker)
		fmt.Fprintf(w, "  input:\n%s\n", indent(c.Input))
		fmt.Fprintf(w, "  output:\n%s\n\n", indent(c.Output))
	}

	renderReviewBanner(w, cases.ReviewNotices())
}

// renderReviewBanner lists the cases a human must check before submission
func renderReviewBanner(w io.Writer, notices []domain.ReviewNotice) {
	if len(notices) == 0 {
		okColor.Fprintln(w, "✓ All cases extracted with confidence")
		return
	}

	warnColor.Fprintf(w, "⚠ %d case(s) need manual review before submission\n", len(notices))
	for _, n := range notices {
		flagColor.Fprintf(w, "  #%d: %s\n", n.Index, n.Message)
	}
}

func writeSubmission(w io.Writer, cases domain.TestCaseList) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(fixture.ExportCases(cases))
}

func indent(text string) string {
	if text == "" {
		return "    (empty)"
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}

// localEngine builds the engine with the configured strategy chain
func localEngine() (*extract.Engine, error) {
	var names []string
	if cfg, err := config.LoadLocalConfig(); err == nil {
		names = cfg.Extraction.Strategies
	}
	strategies, err := extract.StrategiesByName(names)
	if err != nil {
		return nil, err
	}
	return extract.NewEngine(strategies...), nil
}

// readInputs reads the cases file and the optional expected-output file.
// "-" reads the cases from stdin.
func readInputs(files []string) (string, string, error) {
	var casesText, expected string

	var data []byte
	var err error
	if files[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(files[0])
	}
	if err != nil {
		return "", "", fmt.Errorf("read cases: %w", err)
	}
	casesText = string(data)

	if len(files) == 2 {
		data, err := os.ReadFile(files[1])
		if err != nil {
			return "", "", fmt.Errorf("read expected output: %w", err)
		}
		expected = string(data)
	}
	return casesText, expected, nil
}

// splitArgs separates positional arguments from --flags. Boolean flags
// map to "true"; --title takes the next argument as its value.
func splitArgs(args []string) ([]string, map[string]string) {
	var positional []string
	flags := make(map[string]string)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			positional = append(positional, arg)
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		switch {
		case hasValue:
			flags[name] = value
		case name == "title" && i+1 < len(args):
			flags[name] = args[i+1]
			i++
		default:
			flags[name] = "true"
		}
	}
	return positional, flags
}
