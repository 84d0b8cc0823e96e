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

	"github.com/RanFeng/ilog"
	"github.com/cloudwego/eino/compose"

	"github.com/abroadgo/abroad-go/biz/consts"
	"github.com/abroadgo/abroad-go/biz/infra"
	"github.com/abroadgo/abroad-go/biz/model"
)

// 子图流转函数：上一个阶段把后继阶段名写入 state.Goto，
// 该函数读取 state.Goto 并将控制权交给对应阶段。
// The order is fixed (researcher -> local_expert -> timeline -> reporter);
// a stage only ever hands off to its declared successor.
func stageHandOff(ctx context.Context, input string) (next string, err error) {
	defer func() {
		ilog.EventInfo(ctx, "stage_hand_off", "next", next)
	}()
	_ = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		next = state.Goto
		return nil
	})
	return next, nil
}

// Builder assembles the pipeline graph. Each stage is a subgraph; hand-off
// branches chain them in the fixed pipeline order. genFunc seeds the
// run-local state with the validated preferences.
func Builder[I, O any](ctx context.Context, deps *infra.Deps, genFunc compose.GenLocalState[*model.State]) compose.Runnable[I, O] {
	g := compose.NewGraph[I, O](
		compose.WithGenLocalState(genFunc),
	)

	outMap := map[string]bool{
		consts.Researcher:  true,
		consts.LocalExpert: true,
		consts.Timeline:    true,
		consts.Reporter:    true,
		compose.END:        true,
	}

	researcherGraph := NewResearcher[I, O](ctx, deps)
	localExpertGraph := NewLocalExpert[I, O](ctx, deps)
	timelineGraph := NewTimeline[I, O](ctx, deps)
	reporterGraph := NewReporter[I, O](ctx)

	_ = g.AddGraphNode(consts.Researcher, researcherGraph, compose.WithNodeName(consts.Researcher))
	_ = g.AddGraphNode(consts.LocalExpert, localExpertGraph, compose.WithNodeName(consts.LocalExpert))
	_ = g.AddGraphNode(consts.Timeline, timelineGraph, compose.WithNodeName(consts.Timeline))
	_ = g.AddGraphNode(consts.Reporter, reporterGraph, compose.WithNodeName(consts.Reporter))

	_ = g.AddBranch(consts.Researcher, compose.NewGraphBranch(stageHandOff, outMap))
	_ = g.AddBranch(consts.LocalExpert, compose.NewGraphBranch(stageHandOff, outMap))
	_ = g.AddBranch(consts.Timeline, compose.NewGraphBranch(stageHandOff, outMap))
	_ = g.AddBranch(consts.Reporter, compose.NewGraphBranch(stageHandOff, outMap))

	_ = g.AddEdge(compose.START, consts.Researcher)

	r, err := g.Compile(ctx,
		compose.WithGraphName("AbroadGo"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
	if err != nil {
		ilog.EventError(ctx, err, "compile failed")
	}
	return r
}
