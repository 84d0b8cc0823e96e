/*
 * Copyright 2025 Abroad-Go Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/RanFeng/ilog"
	einomcp "github.com/cloudwego/eino-ext/components/tool/mcp"
	"github.com/cloudwego/eino/components/tool"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/abroadgo/abroad-go/conf"
)

var (
	MCPServer map[string]client.MCPClient
)

// InitMCP starts the optional stdio MCP servers from configuration. Their
// tools are merged into the research agent's tool set; an empty servers map
// is the normal case.
func InitMCP() {
	var err error
	MCPServer, err = createMCPClients()
	if err != nil {
		panic(err)
	}
}

func createMCPClients() (map[string]client.MCPClient, error) {
	clients := make(map[string]client.MCPClient)

	for name, server := range conf.Config.MCP.Servers {
		ilog.EventInfo(context.Background(), "load_mcp_client", "name", name)
		var env []string
		for k, v := range server.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		mcpClient, err := client.NewStdioMCPClient(server.Command, env, server.Args...)
		if err != nil {
			for _, c := range clients {
				_ = c.Close()
			}
			return nil, fmt.Errorf("failed to create MCP client for %s: %w", name, err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)

		initRequest := mcp.InitializeRequest{}
		initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
		initRequest.Params.ClientInfo = mcp.Implementation{
			Name:    "abroad-go",
			Version: "0.1.0",
		}
		initRequest.Params.Capabilities = mcp.ClientCapabilities{}

		_, err = mcpClient.Initialize(ctx, initRequest)
		cancel()
		if err != nil {
			_ = mcpClient.Close()
			for _, c := range clients {
				_ = c.Close()
			}
			return nil, fmt.Errorf("failed to initialize MCP client for %s: %w", name, err)
		}

		clients[name] = mcpClient
	}

	return clients, nil
}

// GetMCPTools collects the tools of every configured MCP server. Failures
// are logged and skipped; MCP tools are an optional extra, not a pipeline
// dependency.
func GetMCPTools(ctx context.Context) []tool.BaseTool {
	var tools []tool.BaseTool
	for name, cli := range MCPServer {
		ts, err := einomcp.GetTools(ctx, &einomcp.Config{Cli: cli})
		if err != nil {
			ilog.EventError(ctx, err, "mcp_get_tools_failed", "server", name)
			continue
		}
		tools = append(tools, ts...)
	}
	return tools
}
