package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/voxdash/voxdash/internal/domain"
)

// QueryCmd runs one query against the gateway and prints the result
type QueryCmd struct {
	JSON bool     `help:"Print the raw response envelope as JSON"`
	Text []string `arg:"" help:"The query text"`
}

// Run dispatches the query over the connected transport
func (q *QueryCmd) Run(cli *CLI) error {
	session := cli.Container.SessionService.CheckAuthStatus(context.Background())
	if !session.IsLoggedIn {
		return domain.NewAppError(domain.CodeNotConnected, "not logged in; run voxdash login first")
	}

	cli.Container.Channel.Connect(context.Background(), cli.SocketURL, session.AccessToken)
	defer cli.Container.Channel.Disconnect()
	if !cli.Container.Channel.State().Usable() {
		fmt.Fprintln(os.Stderr, "warning: realtime channel unavailable, using the REST fallback")
	}

	resp := cli.Container.QueryService.ProcessQuery(context.Background(), strings.Join(q.Text, " "))

	if q.JSON {
		raw, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		fmt.Println(string(raw))
		return nil
	}

	printResponse(resp)
	if resp.Type == domain.ResponseError {
		os.Exit(1)
	}
	return nil
}

// printResponse writes a plain-text rendering suitable for scripting
func printResponse(resp domain.QueryResponse) {
	switch resp.Type {
	case domain.ResponseText:
		fmt.Println(resp.Text)
	case domain.ResponseImage:
		fmt.Println(resp.ImageURL)
	case domain.ResponseList:
		if resp.List == nil {
			return
		}
		if resp.List.Title != "" {
			fmt.Println(resp.List.Title)
		}
		for _, item := range resp.List.Items {
			fmt.Printf("- %s\n", item)
		}
	case domain.ResponseTable:
		if resp.Table == nil {
			return
		}
		fmt.Println(strings.Join(resp.Table.Headers, "\t"))
		for _, row := range resp.Table.Rows {
			fmt.Println(strings.Join(row, "\t"))
		}
	case domain.ResponseError:
		if resp.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", resp.Err.Message)
		}
	}
}
