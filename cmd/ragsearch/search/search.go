// Package searchcmder provides the search command, a client for a running
// ragsearch API server.
package searchcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/elvenok1/servidor-api-rag/api"
	apisearch "github.com/elvenok1/servidor-api-rag/api/search"
	"github.com/elvenok1/servidor-api-rag/cmd/ragsearch/cmdutil"
	"github.com/elvenok1/servidor-api-rag/pkg/cliui"
	"github.com/elvenok1/servidor-api-rag/pkg/config"
	"github.com/elvenok1/servidor-api-rag/pkg/retrieval"
	"github.com/elvenok1/servidor-api-rag/pkg/utils"
)

const (
	requestTimeout = 60 * time.Second
	previewWidth   = 100
)

type searchCommander struct {
	query    string
	topK     int
	topKSet  bool
	asJSON   bool
	markdown bool

	apiTarget string
}

const searchLongDesc string = `Search the collection via the ragsearch API.

Returns the chunks most similar to the query, highest score first, with their
stored payload. Requires a running server (ragsearch serve).

Examples:
  ragsearch search "how to merge cells"
  ragsearch search "freeze the first row" --top 10
  ragsearch search "conditional formatting" --json | jq '.results[0].payload'
  ragsearch search "set column width" --api-target http://rag.internal:8081`

const searchShortDesc string = "Search the collection"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := cmdutil.LoadConfig(cmd, config.ClientFlags, []string{config.FlagAPITarget})
			if err != nil {
				return err
			}
			cmder.apiTarget = cfg.Client.APITarget
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			cmder.topKSet = cmd.Flags().Changed("top")
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 0, "Number of results to return (default: server's search.default_top_k)")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the raw JSON response")
	cmd.Flags().BoolVarP(&cmder.markdown, "markdown", "m", false, "Render result text as markdown")
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, &cmder.apiTarget)

	return cmd
}

func (c *searchCommander) run(ctx context.Context, w io.Writer) error {
	var topK *int
	if c.topKSet {
		topK = &c.topK
	}

	resp, raw, err := SearchAPI(ctx, c.apiTarget, c.query, topK)
	if err != nil {
		return err
	}

	if c.asJSON {
		_, err := w.Write(append(raw, '\n'))
		return err
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "\n%s %s\n\n",
		cliui.HeaderStyle.Render("Search results for:"),
		cliui.KeyStyle.Render(fmt.Sprintf("%q", c.query)),
	)

	for i, hit := range resp.Results {
		c.printHit(w, i+1, hit)
	}
	return nil
}

func (c *searchCommander) printHit(w io.Writer, rank int, hit retrieval.Hit) {
	fmt.Fprintf(w, "  %s  %s  %s\n",
		cliui.RankStyle.Render(fmt.Sprintf("#%d", rank)),
		cliui.ScoreStyle.Render(fmt.Sprintf("score: %.4f", hit.Score)),
		cliui.KeyStyle.Render(hit.ID),
	)

	text, rest := splitPayload(hit.Payload)
	if text != "" {
		if c.markdown {
			if rendered, err := cliui.RenderMarkdown(text); err == nil {
				fmt.Fprint(w, rendered)
			} else {
				fmt.Fprintf(w, "  %s\n", text)
			}
		} else {
			fmt.Fprintf(w, "  %s\n", cliui.ValueStyle.Render(utils.Truncate(utils.SingleLine(text), previewWidth)))
		}
	}

	for _, k := range sortedKeys(rest) {
		fmt.Fprintf(w, "  %s %s\n",
			cliui.DimStyle.Render(k+":"),
			cliui.DimStyle.Render(utils.Truncate(fmt.Sprint(rest[k]), previewWidth)),
		)
	}
	fmt.Fprintln(w)
}

// textKeys are payload fields treated as the chunk body, in priority order.
var textKeys = []string{"text", "content", "page_content", "document"}

func splitPayload(payload map[string]any) (string, map[string]any) {
	rest := make(map[string]any, len(payload))
	for k, v := range payload {
		rest[k] = v
	}
	for _, k := range textKeys {
		if s, ok := rest[k].(string); ok {
			delete(rest, k)
			return s, rest
		}
	}
	return "", rest
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SearchAPI posts a search to a running server and returns the decoded
// response along with the raw body. A nil topK leaves top_k to the server.
func SearchAPI(ctx context.Context, apiTarget, query string, topK *int) (*retrieval.Response, []byte, error) {
	endpoint, err := url.JoinPath(strings.TrimRight(apiTarget, "/"), "v1", "search")
	if err != nil {
		return nil, nil, fmt.Errorf("invalid API target %q: %w", apiTarget, err)
	}

	body, err := json.Marshal(apisearch.SearchInput{Query: query, TopK: topK})
	if err != nil {
		return nil, nil, fmt.Errorf("encoding request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("calling ragsearch API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Status != "" {
			return nil, raw, fmt.Errorf("search failed (%s): %s", apiErr.Status, apiErr.Error)
		}
		return nil, raw, fmt.Errorf("search failed: HTTP %d", resp.StatusCode)
	}

	var out retrieval.Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, raw, fmt.Errorf("decoding response: %w", err)
	}
	if out.Status != retrieval.StatusSuccess {
		return nil, raw, errors.New("unexpected response status: " + out.Status)
	}
	return &out, raw, nil
}
