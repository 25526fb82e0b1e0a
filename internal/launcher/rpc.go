package launcher

import (
	"encoding/json"

	"github.com/prbridge/prbridge/internal/config"
)

// methodToolsCall is the method name of the one request the launcher sends.
const methodToolsCall = "tools.call"

// analyzeTool is the server operation the launcher invokes.
const analyzeTool = "analyze_and_comment_pr"

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      int        `json:"id"`
	Method  string     `json:"method"`
	Params  callParams `json:"params"`
}

// callParams names the tool and carries its arguments.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// encodeAnalyzeRequest serializes the single analyze_and_comment_pr call as
// one line of JSON terminated by a newline.
func encodeAnalyzeRequest(cfg *config.Launcher) ([]byte, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  methodToolsCall,
		Params: callParams{
			Name: analyzeTool,
			Arguments: map[string]any{
				"owner":       cfg.Owner,
				"repo":        cfg.Repo,
				"pull_number": cfg.PullNumber,
				"token":       cfg.Token,
			},
		},
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
