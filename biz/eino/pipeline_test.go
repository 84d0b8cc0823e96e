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
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	ecmodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abroadgo/abroad-go/biz/consts"
	"github.com/abroadgo/abroad-go/biz/infra"
	"github.com/abroadgo/abroad-go/biz/model"
)

// scriptedModel replays a fixed list of replies, one per Generate call.
type scriptedModel struct {
	mu     sync.Mutex
	script []scriptStep
	calls  int
}

type scriptStep struct {
	reply *schema.Message
	err   error
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...ecmodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls >= len(m.script) {
		return nil, &model.ProviderError{Stage: "test", Err: context.Canceled}
	}
	step := m.script[m.calls]
	m.calls++
	return step.reply, step.err
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...ecmodel.Option) (*schema.StreamReader[*schema.Message], error) {
	reply, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	sr, sw := schema.Pipe[*schema.Message](1)
	sw.Send(reply, nil)
	sw.Close()
	return sr, nil
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (ecmodel.ToolCallingChatModel, error) {
	return m, nil
}

func (m *scriptedModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func assistantMsg(content string) *schema.Message {
	return &schema.Message{Role: schema.Assistant, Content: content}
}

func toolCallMsg(name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:       "call-1",
			Function: schema.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

func stubSearchTool(t *testing.T) tool.BaseTool {
	t.Helper()
	st, err := utils.InferTool(consts.ToolWebSearch, "search the web",
		func(ctx context.Context, input *infra.SearchInput) (string, error) {
			return "1. Example University - https://example.edu", nil
		})
	require.NoError(t, err)
	return st
}

func testDeps(t *testing.T, chat *scriptedModel, timeline *scriptedModel) *infra.Deps {
	t.Helper()
	conv := infra.NewCurrencyConverter(nil)
	currencyTool, err := infra.NewCurrencyTool(context.Background(), conv)
	require.NoError(t, err)

	search := stubSearchTool(t)
	return &infra.Deps{
		ChatModel:     chat,
		TimelineModel: timeline,
		ResearchTools: []tool.BaseTool{search},
		LivingTools:   []tool.BaseTool{search, currencyTool},
		Converter:     conv,
		MaxAgentSteps: 5,
	}
}

func timelineJSON(monthCost float64) string {
	tp := &model.TimelinePlan{
		Title:    "Road to 2026-09",
		Currency: "EUR",
		Months: []model.MonthEntry{
			{Month: "2026-03", Items: []string{"Apply to TU Munich"}, EstimatedCost: monthCost},
			{Month: "2026-09", Items: []string{"Move in"}, EstimatedCost: monthCost},
		},
	}
	raw, err := sonic.MarshalString(tp)
	if err != nil {
		panic(err)
	}
	return raw
}

func runPipeline(t *testing.T, deps *infra.Deps) (string, error) {
	t.Helper()
	ctx := context.Background()
	genFunc := func(ctx context.Context) *model.State {
		return &model.State{RunID: "test-run", Prefs: testPrefs(), Goto: consts.Researcher}
	}
	r := Builder[string, string](ctx, deps, genFunc)
	require.NotNil(t, r)
	return r.Invoke(ctx, "start")
}

func TestPipelineHappyPath(t *testing.T) {
	chat := &scriptedModel{script: []scriptStep{
		{reply: assistantMsg("## Universities\nTU Munich leads the ranking for CS.")},
		{reply: assistantMsg("## Living costs\nExpect about 1100 EUR per month in Munich.")},
	}}
	timeline := &scriptedModel{script: []scriptStep{
		{reply: assistantMsg(timelineJSON(500))},
	}}

	out, err := runPipeline(t, testDeps(t, chat, timeline))
	require.NoError(t, err)

	plan := &model.Plan{}
	require.NoError(t, sonic.UnmarshalString(out, plan))
	require.Len(t, plan.Sections, 3)
	assert.Equal(t, consts.SectionResearch, plan.Sections[0].Heading)
	assert.Equal(t, consts.SectionLiving, plan.Sections[1].Heading)
	assert.Equal(t, consts.SectionTimeline, plan.Sections[2].Heading)
	for _, s := range plan.Sections {
		assert.NotEmpty(t, s.Body)
	}
	assert.False(t, plan.OverBudget)
	assert.Contains(t, plan.Title, "Computer Science")
	assert.Contains(t, plan.Title, "Germany")
}

// A model wrapped in a code fence still yields a decodable timeline.
func TestPipelineFencedTimeline(t *testing.T) {
	chat := &scriptedModel{script: []scriptStep{
		{reply: assistantMsg("research report")},
		{reply: assistantMsg("living guide")},
	}}
	timeline := &scriptedModel{script: []scriptStep{
		{reply: assistantMsg("```json\n" + timelineJSON(500) + "\n```")},
	}}

	out, err := runPipeline(t, testDeps(t, chat, timeline))
	require.NoError(t, err)

	plan := &model.Plan{}
	require.NoError(t, sonic.UnmarshalString(out, plan))
	assert.Len(t, plan.Sections, 3)
}

// A research failure aborts the run before the living-cost stage starts.
func TestPipelineResearchFailureAborts(t *testing.T) {
	chat := &scriptedModel{script: []scriptStep{
		{err: &model.ProviderError{Stage: consts.Researcher, Err: context.DeadlineExceeded}},
	}}
	timeline := &scriptedModel{}

	_, err := runPipeline(t, testDeps(t, chat, timeline))
	require.Error(t, err)
	assert.Equal(t, 1, chat.callCount())
	assert.Equal(t, 0, timeline.callCount())
}

// An unsupported currency code aborts the run; the timeline stage never runs.
func TestPipelineConversionFailureAborts(t *testing.T) {
	chat := &scriptedModel{script: []scriptStep{
		{reply: assistantMsg("research report")},
		{reply: toolCallMsg(consts.ToolConvert, `{"amount":100,"from":"XYZ","to":"EUR"}`)},
	}}
	timeline := &scriptedModel{}

	_, err := runPipeline(t, testDeps(t, chat, timeline))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported currency conversion")
	assert.Equal(t, 0, timeline.callCount())
}

// Over budget: the plan still carries the real figures plus a warning, and
// the flag is set for the UI.
func TestPipelineOverBudget(t *testing.T) {
	chat := &scriptedModel{script: []scriptStep{
		{reply: assistantMsg("research report")},
		{reply: assistantMsg("living guide")},
	}}
	timeline := &scriptedModel{script: []scriptStep{
		{reply: assistantMsg(timelineJSON(10000))},
	}}

	out, err := runPipeline(t, testDeps(t, chat, timeline))
	require.NoError(t, err)

	plan := &model.Plan{}
	require.NoError(t, sonic.UnmarshalString(out, plan))
	assert.True(t, plan.OverBudget)
	assert.Contains(t, plan.Sections[2].Body, "Warning")
	assert.Contains(t, plan.Sections[2].Body, "20000.00 EUR")
}

// Garbage from the timeline model is a stage failure, not a silent empty
// section.
func TestPipelineBadTimelineJSON(t *testing.T) {
	chat := &scriptedModel{script: []scriptStep{
		{reply: assistantMsg("research report")},
		{reply: assistantMsg("living guide")},
	}}
	timeline := &scriptedModel{script: []scriptStep{
		{reply: assistantMsg("sorry, I cannot produce JSON today")},
	}}

	_, err := runPipeline(t, testDeps(t, chat, timeline))
	require.Error(t, err)
}
