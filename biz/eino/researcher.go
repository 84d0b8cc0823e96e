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
	"io"
	"strings"
	"time"

	"github.com/RanFeng/ilog"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"github.com/abroadgo/abroad-go/biz/consts"
	"github.com/abroadgo/abroad-go/biz/infra"
	"github.com/abroadgo/abroad-go/biz/model"
)

// promptVariables collects the template variables shared by every stage
// prompt. Stage loaders add their stage-specific entries on top.
func promptVariables(prefs *model.StudyPreferences) map[string]any {
	return map[string]any{
		"destination":        prefs.Destination,
		"field_of_study":     prefs.FieldOfStudy,
		"budget_amount":      fmt.Sprintf("%.0f", prefs.BudgetAmount),
		"budget_currency":    prefs.BudgetCurrency,
		"start_date":         prefs.TargetStartDate.Format("2006-01"),
		"housing_preference": prefs.HousingPreference,
		"origin":             prefs.Origin,
		"study_level":        prefs.StudyLevel,
		"interests":          prefs.Interests,
		"CURRENT_TIME":       time.Now().Format("2006-01-02 15:04:05"),
	}
}

func loadResearcherMsg(ctx context.Context, name string, opts ...any) (output []*schema.Message, err error) {
	err = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		sysPrompt, err := infra.GetPromptTemplate(ctx, consts.Researcher)
		if err != nil {
			return err
		}

		promptTemp := prompt.FromMessages(schema.Jinja2,
			schema.SystemMessage(sysPrompt),
			schema.MessagesPlaceholder("user_input", true),
		)

		msg := []*schema.Message{
			schema.UserMessage(fmt.Sprintf(
				"Find and rank universities in %s for %s. Return the report in markdown.",
				state.Prefs.Destination, state.Prefs.FieldOfStudy)),
		}
		variables := promptVariables(state.Prefs)
		variables["user_input"] = msg
		output, err = promptTemp.Format(ctx, variables)
		return err
	})
	return output, err
}

func routerResearcher(ctx context.Context, input *schema.Message, opts ...any) (output string, err error) {
	stateErr := compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		content := strings.TrimSpace(input.Content)
		if content == "" {
			return &model.ProviderError{Stage: consts.Researcher, Err: fmt.Errorf("empty research result")}
		}
		state.ResearchResult = content
		state.Goto = consts.LocalExpert
		ilog.EventInfo(ctx, "researcher_end", "result_len", len(content))
		output = state.Goto
		return nil
	})
	if stateErr != nil {
		return "", stateErr
	}
	return output, nil
}

// clampMessages keeps upstream stage output from blowing the model context.
func clampMessages(ctx context.Context, input []*schema.Message) []*schema.Message {
	sum := 0
	maxLimit := 50000
	for i := range input {
		if input[i] == nil {
			ilog.EventWarn(ctx, "clamp_messages_nil", "index", i)
			continue
		}
		l := len(input[i].Content)
		if l > maxLimit {
			ilog.EventWarn(ctx, "clamp_messages_clip", "raw_len", l)
			input[i].Content = input[i].Content[l-maxLimit:]
		}
		sum += len(input[i].Content)
	}
	ilog.EventDebug(ctx, "clamp_messages", "sum", sum, "input_len", len(input))
	return input
}

func toolCallChecker(_ context.Context, sr *schema.StreamReader[*schema.Message]) (bool, error) {
	defer sr.Close()

	for {
		msg, err := sr.Recv()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		if len(msg.ToolCalls) > 0 {
			return true, nil
		}
	}
}

// NewResearcher builds the university research stage: a react agent over the
// chat model with web-search and page-scrape tools.
func NewResearcher[I, O any](ctx context.Context, deps *infra.Deps) *compose.Graph[I, O] {
	cag := compose.NewGraph[I, O]()

	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		MaxStep:               deps.MaxAgentSteps,
		ToolCallingModel:      deps.ChatModel,
		ToolsConfig:           compose.ToolsNodeConfig{Tools: deps.ResearchTools},
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

	_ = cag.AddLambdaNode("load", compose.InvokableLambdaWithOption(loadResearcherMsg))
	_ = cag.AddLambdaNode("agent", agentLambda)
	_ = cag.AddLambdaNode("router", compose.InvokableLambdaWithOption(routerResearcher))

	_ = cag.AddEdge(compose.START, "load")
	_ = cag.AddEdge("load", "agent")
	_ = cag.AddEdge("agent", "router")
	_ = cag.AddEdge("router", compose.END)
	return cag
}
