package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/prbridge/prbridge/internal/report"
)

// promptName is the single prompt the server advertises.
const promptName = "analyze_pull_request"

// registerPrompts adds the analyze_pull_request prompt. Its text is static
// for the lifetime of the server: the instruction block plus the active
// review checklist, both taken from the (swappable) report template.
func registerPrompts(server *mcp.Server, renderer *report.Renderer) {
	var sb strings.Builder
	sb.WriteString(renderer.Prompt())
	sb.WriteString("\n\nReview checklist:\n")
	for _, rule := range renderer.Rules() {
		fmt.Fprintf(&sb, "- %s\n", rule)
	}
	text := sb.String()

	server.AddPrompt(&mcp.Prompt{
		Name:        promptName,
		Description: "Instructions for reviewing a pull request with the prbridge tools.",
	}, func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Description: "Pull request review instructions",
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: text},
				},
			},
		}, nil
	})
}
