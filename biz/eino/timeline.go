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
	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/abroadgo/abroad-go/biz/consts"
	"github.com/abroadgo/abroad-go/biz/infra"
	"github.com/abroadgo/abroad-go/biz/model"
)

func loadTimelineMsg(ctx context.Context, name string, opts ...any) (output []*schema.Message, err error) {
	err = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		sysPrompt, err := infra.GetPromptTemplate(ctx, consts.Timeline)
		if err != nil {
			return err
		}

		promptTemp := prompt.FromMessages(schema.Jinja2,
			schema.SystemMessage(sysPrompt),
			schema.MessagesPlaceholder("user_input", true),
		)

		msg := []*schema.Message{
			schema.UserMessage(fmt.Sprintf(
				"Build a month-by-month application timeline and budget from today until %s, "+
					"with every amount in %s. Respond with the JSON object only.",
				state.Prefs.TargetStartDate.Format("2006-01"), state.Prefs.BudgetCurrency)),
		}
		variables := promptVariables(state.Prefs)
		variables["research_report"] = state.ResearchResult
		variables["living_guide"] = state.LivingResult
		variables["user_input"] = msg
		output, err = promptTemp.Format(ctx, variables)
		return err
	})
	return output, err
}

// stripFences tolerates models that wrap the JSON answer in a markdown code
// fence even when asked not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func routerTimeline(ctx context.Context, input *schema.Message, opts ...any) (output string, err error) {
	stateErr := compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		raw := stripFences(input.Content)
		if raw == "" {
			return &model.ProviderError{Stage: consts.Timeline, Err: fmt.Errorf("empty timeline result")}
		}

		plan := &model.TimelinePlan{}
		if err := sonic.UnmarshalString(raw, plan); err != nil {
			return &model.ProviderError{Stage: consts.Timeline, Err: fmt.Errorf("timeline is not valid JSON: %w", err)}
		}
		if len(plan.Months) == 0 {
			return &model.ProviderError{Stage: consts.Timeline, Err: fmt.Errorf("timeline has no months")}
		}
		if plan.Currency == "" {
			plan.Currency = state.Prefs.BudgetCurrency
		}

		rendered, overBudget := plan.RenderMarkdown(state.Prefs.BudgetAmount, state.Prefs.BudgetCurrency)
		state.Timeline = plan
		state.TimelineResult = rendered
		state.OverBudget = overBudget
		state.Goto = consts.Reporter
		ilog.EventInfo(ctx, "timeline_end",
			"months", len(plan.Months), "total", plan.Total(), "over_budget", overBudget)
		output = state.Goto
		return nil
	})
	if stateErr != nil {
		return "", stateErr
	}
	return output, nil
}

// NewTimeline builds the timeline stage. No tools here: it works from the two
// upstream reports and answers in one structured shot, so the node is a plain
// chat-model call pinned to the timeline_plan JSON schema.
func NewTimeline[I, O any](ctx context.Context, deps *infra.Deps) *compose.Graph[I, O] {
	cag := compose.NewGraph[I, O]()

	_ = cag.AddLambdaNode("load", compose.InvokableLambdaWithOption(loadTimelineMsg))
	_ = cag.AddChatModelNode("agent", deps.TimelineModel)
	_ = cag.AddLambdaNode("router", compose.InvokableLambdaWithOption(routerTimeline))

	_ = cag.AddEdge(compose.START, "load")
	_ = cag.AddEdge("load", "agent")
	_ = cag.AddEdge("agent", "router")
	_ = cag.AddEdge("router", compose.END)
	return cag
}
