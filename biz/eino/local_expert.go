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

package eino

import (
	"context"
	"fmt"
	"strings"

	"github.com/RanFeng/ilog"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"github.com/abroadgo/abroad-go/biz/consts"
	"github.com/abroadgo/abroad-go/biz/infra"
	"github.com/abroadgo/abroad-go/biz/model"
)

func loadLocalExpertMsg(ctx context.Context, name string, opts ...any) (output []*schema.Message, err error) {
	err = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		sysPrompt, err := infra.GetPromptTemplate(ctx, consts.LocalExpert)
		if err != nil {
			return err
		}

		promptTemp := prompt.FromMessages(schema.Jinja2,
			schema.SystemMessage(sysPrompt),
			schema.MessagesPlaceholder("user_input", true),
		)

		msg := []*schema.Message{
			schema.UserMessage(fmt.Sprintf(
				"Estimate monthly living costs in %s for a student who prefers %s housing. "+
					"Quote all amounts in %s, using convert_currency for anything quoted in a local currency.",
				state.Prefs.Destination, state.Prefs.HousingPreference, state.Prefs.BudgetCurrency)),
		}
		variables := promptVariables(state.Prefs)
		variables["research_report"] = state.ResearchResult
		variables["user_input"] = msg
		output, err = promptTemp.Format(ctx, variables)
		return err
	})
	return output, err
}

func routerLocalExpert(ctx context.Context, input *schema.Message, opts ...any) (output string, err error) {
	stateErr := compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		content := strings.TrimSpace(input.Content)
		if content == "" {
			return &model.ProviderError{Stage: consts.LocalExpert, Err: fmt.Errorf("empty living-cost result")}
		}
		state.LivingResult = content
		state.Goto = consts.Timeline
		ilog.EventInfo(ctx, "local_expert_end", "result_len", len(content))
		output = state.Goto
		return nil
	})
	if stateErr != nil {
		return "", stateErr
	}
	return output, nil
}

// NewLocalExpert builds the living-cost stage. Same react shape as the
// researcher, but its tool set adds convert_currency, and a conversion
// failure aborts the run instead of degrading.
func NewLocalExpert[I, O any](ctx context.Context, deps *infra.Deps) *compose.Graph[I, O] {
	cag := compose.NewGraph[I, O]()

	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		MaxStep:               deps.MaxAgentSteps,
		ToolCallingModel:      deps.ChatModel,
		ToolsConfig:           compose.ToolsNodeConfig{Tools: deps.LivingTools},
		MessageModifier:       clampMessages,
		StreamToolCallChecker: toolCallChecker,
	})
	if err != nil {
		panic(err)
	}

	agentLambda, err := compose.AnyLambda(agent.Generate, agent.Stream, nil, nil)
	if err != nil {
		panic(err)
	}

	_ = cag.AddLambdaNode("load", compose.InvokableLambdaWithOption(loadLocalExpertMsg))
	_ = cag.AddLambdaNode("agent", agentLambda)
	_ = cag.AddLambdaNode("router", compose.InvokableLambdaWithOption(routerLocalExpert))

	_ = cag.AddEdge(compose.START, "load")
	_ = cag.AddEdge("load", "agent")
	_ = cag.AddEdge("agent", "router")
	_ = cag.AddEdge("router", compose.END)
	return cag
}
