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
	"time"

	"github.com/RanFeng/ilog"
	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/compose"

	"github.com/abroadgo/abroad-go/biz/consts"
	"github.com/abroadgo/abroad-go/biz/model"
)

// Assemble builds the final plan from the three stage reports. It is pure:
// the same inputs always give the same plan, section order is fixed.
func Assemble(prefs *model.StudyPreferences, research, living, timeline string, overBudget bool) *model.Plan {
	return &model.Plan{
		Title: fmt.Sprintf("Study Abroad Plan: %s in %s", prefs.FieldOfStudy, prefs.Destination),
		Sections: []model.Section{
			{Heading: consts.SectionResearch, Body: research},
			{Heading: consts.SectionLiving, Body: living},
			{Heading: consts.SectionTimeline, Body: timeline},
		},
		OverBudget:  overBudget,
		GeneratedAt: time.Now().UTC(),
	}
}

func routerReporter(ctx context.Context, input string, opts ...any) (output string, err error) {
	stateErr := compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		if state.ResearchResult == "" || state.LivingResult == "" || state.TimelineResult == "" {
			return &model.ProviderError{Stage: consts.Reporter, Err: fmt.Errorf("stage result missing")}
		}
		state.Plan = Assemble(state.Prefs, state.ResearchResult, state.LivingResult, state.TimelineResult, state.OverBudget)
		state.Goto = compose.END

		// The assembled plan is the graph's final output.
		planJSON, err := sonic.MarshalString(state.Plan)
		if err != nil {
			return &model.ProviderError{Stage: consts.Reporter, Err: err}
		}
		output = planJSON
		ilog.EventInfo(ctx, "reporter_end", "run_id", state.RunID, "sections", len(state.Plan.Sections))
		return nil
	})
	if stateErr != nil {
		return "", stateErr
	}
	return output, nil
}

// NewReporter builds the assembler stage. It calls no model: assembly is
// deterministic concatenation of the three stage reports.
func NewReporter[I, O any](ctx context.Context) *compose.Graph[I, O] {
	cag := compose.NewGraph[I, O]()

	_ = cag.AddLambdaNode("router", compose.InvokableLambdaWithOption(routerReporter))

	_ = cag.AddEdge(compose.START, "router")
	_ = cag.AddEdge("router", compose.END)
	return cag
}
