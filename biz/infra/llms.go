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

	"github.com/RanFeng/ilog"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	openai3 "github.com/cloudwego/eino-ext/libs/acl/openai"
	ecmodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/getkin/kin-openapi/openapi3gen"

	"github.com/abroadgo/abroad-go/biz/model"
	"github.com/abroadgo/abroad-go/conf"
)

// Deps bundles the capabilities one pipeline run needs: the chat models, the
// research tool set and the currency converter. It is built once at startup
// and passed explicitly, so sessions stay independent and tests can inject
// fakes.
type Deps struct {
	// ChatModel drives the research and living-cost react agents.
	ChatModel ecmodel.ToolCallingChatModel
	// TimelineModel produces the JSON timeline; on OpenAI it is pinned to a
	// JSON-schema response format.
	TimelineModel ecmodel.BaseChatModel

	ResearchTools []tool.BaseTool
	LivingTools   []tool.BaseTool

	Converter *CurrencyConverter

	MaxAgentSteps int
}

// InitDeps wires models, tools and the currency converter from configuration.
// When no API key is configured it falls back to a local Ollama endpoint.
func InitDeps(ctx context.Context) (*Deps, error) {
	deps := &Deps{
		MaxAgentSteps: conf.Config.Setting.MaxAgentSteps,
		Converter:     NewCurrencyConverter(conf.Config.Currency.Rates),
	}

	if conf.Config.Model.APIKey != "" {
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: conf.Config.Model.BaseURL,
			APIKey:  conf.Config.Model.APIKey,
			Model:   conf.Config.Model.DefaultModel,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}

		timelineSchema, err := openapi3gen.NewSchemaRefForValue(&model.TimelinePlan{}, nil)
		if err != nil {
			return nil, fmt.Errorf("generate timeline schema: %w", err)
		}
		timelineModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: conf.Config.Model.BaseURL,
			APIKey:  conf.Config.Model.APIKey,
			Model:   conf.Config.Model.DefaultModel,
			ResponseFormat: &openai3.ChatCompletionResponseFormat{
				Type: openai3.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai3.ChatCompletionResponseFormatJSONSchema{
					Name:   "timeline_plan",
					Strict: false,
					Schema: timelineSchema.Value,
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("create timeline model: %w", err)
		}
		deps.ChatModel = chatModel
		deps.TimelineModel = timelineModel
		ilog.EventInfo(ctx, "init_model", "provider", "openai", "model", conf.Config.Model.DefaultModel)
	} else {
		chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: conf.Config.Model.OllamaBaseURL,
			Model:   conf.Config.Model.OllamaModel,
		})
		if err != nil {
			return nil, fmt.Errorf("no api_key configured and ollama fallback failed: %w", err)
		}
		deps.ChatModel = chatModel
		deps.TimelineModel = chatModel
		ilog.EventInfo(ctx, "init_model", "provider", "ollama", "model", conf.Config.Model.OllamaModel)
	}

	searchTool, err := NewSearchTool(ctx)
	if err != nil {
		return nil, fmt.Errorf("create search tool: %w", err)
	}
	scrapeTool, err := NewScrapeTool(ctx)
	if err != nil {
		return nil, fmt.Errorf("create scrape tool: %w", err)
	}
	currencyTool, err := NewCurrencyTool(ctx, deps.Converter)
	if err != nil {
		return nil, fmt.Errorf("create currency tool: %w", err)
	}

	deps.ResearchTools = []tool.BaseTool{searchTool, scrapeTool}
	deps.ResearchTools = append(deps.ResearchTools, GetMCPTools(ctx)...)
	deps.LivingTools = []tool.BaseTool{searchTool, scrapeTool, currencyTool}

	return deps, nil
}
