// Package tools is the catalogue of PACS operations exposed to AI agents
// over the MCP protocol. Each tool owns its schema and handler; Register
// wires them all onto one server.
package tools

import (
	"encoding/json"
	"fmt"

	"dicom-gateway-api/dicomweb"
	"dicom-gateway-api/localstore"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Register adds the five DICOM tools to the MCP server.
func Register(s *server.MCPServer, client *dicomweb.Client, store *localstore.Store) {
	queryStudies := NewQueryStudiesTool(client)
	s.AddTool(queryStudies.Definition(), queryStudies.Handle)

	querySeries := NewQuerySeriesTool(client)
	s.AddTool(querySeries.Definition(), querySeries.Handle)

	queryInstances := NewQueryInstancesTool(client)
	s.AddTool(queryInstances.Definition(), queryInstances.Handle)

	move := NewMoveTool(client)
	s.AddTool(move.Definition(), move.Handle)

	pixelData := NewPixelDataTool(store)
	s.AddTool(pixelData.Definition(), pixelData.Handle)
}

func argString(args map[string]interface{}, key string) string {
	if value, found := args[key]; found {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return ""
}

func argStringMap(args map[string]interface{}, key string) map[string]string {
	value, found := args[key]
	if !found {
		return nil
	}
	raw, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	ret := make(map[string]string, len(raw))
	for k, v := range raw {
		ret[k] = fmt.Sprintf("%v", v)
	}
	return ret
}

func argStringSlice(args map[string]interface{}, key string) []string {
	value, found := args[key]
	if !found {
		return nil
	}
	raw, ok := value.([]interface{})
	if !ok {
		return nil
	}
	ret := make([]string, 0, len(raw))
	for _, v := range raw {
		ret = append(ret, fmt.Sprintf("%v", v))
	}
	return ret
}

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
