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
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/RanFeng/ilog"
	"github.com/cloudwego/eino/callbacks"
	ecmodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/cloudwego/hertz/pkg/protocol/sse"
	"github.com/google/uuid"

	"github.com/abroadgo/abroad-go/biz/consts"
	"github.com/abroadgo/abroad-go/biz/model"
)

// LoggerCallback bridges graph events to ilog and to the run's SSE stream.
// One instance per run; SSE may be nil in tests and CLI use.
type LoggerCallback struct {
	callbacks.HandlerBuilder

	RunID string
	SSE   *sse.Writer

	mu        sync.Mutex
	lastStage string
}

// LastStage reports the stage that most recently produced output, used to
// attribute a failure to the stage it happened in.
func (cb *LoggerCallback) LastStage() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.lastStage
}

// PushStatus emits a human-readable progress line ("Phase 1/3: ...").
func (cb *LoggerCallback) PushStatus(ctx context.Context, stage, text string) {
	cb.mu.Lock()
	cb.lastStage = stage
	cb.mu.Unlock()
	cb.pushF(ctx, consts.EventStatus, &model.ChatResp{
		RunID:   cb.RunID,
		Stage:   stage,
		Role:    "system",
		Content: text,
	})
}

// PushPlan emits the terminal plan event of a successful run.
func (cb *LoggerCallback) PushPlan(ctx context.Context, resp *model.PlanResp) {
	cb.pushF(ctx, consts.EventPlan, resp)
}

// PushError emits the terminal error event of a failed run.
func (cb *LoggerCallback) PushError(ctx context.Context, resp *model.ErrorResp) {
	cb.pushF(ctx, consts.EventError, resp)
}

func (cb *LoggerCallback) pushF(ctx context.Context, event string, data any) {
	if cb.SSE == nil {
		return
	}
	dataByte, err := json.Marshal(data)
	if err != nil {
		ilog.EventError(ctx, err, "json_marshal_error", "data", data)
		return
	}
	if err := cb.SSE.WriteEvent("", event, dataByte); err != nil {
		ilog.EventWarn(ctx, "sse_write_failed", "event", event, "err", err)
	}
}

func (cb *LoggerCallback) pushMsg(ctx context.Context, msgID string, msg *schema.Message) {
	if msg == nil {
		return
	}

	stage := ""
	_ = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		stage = state.Goto
		return nil
	})
	cb.mu.Lock()
	if stage != "" {
		cb.lastStage = stage
	}
	cb.mu.Unlock()

	fr := ""
	if msg.ResponseMeta != nil {
		fr = msg.ResponseMeta.FinishReason
	}
	data := &model.ChatResp{
		RunID:        cb.RunID,
		Stage:        stage,
		ID:           msgID,
		Role:         "assistant",
		Content:      msg.Content,
		FinishReason: fr,
	}

	if msg.Role == schema.Tool {
		data.ToolCallID = msg.ToolCallID
		cb.pushF(ctx, consts.EventToolRes, data)
		return
	}

	if len(msg.ToolCalls) > 0 {
		event := consts.EventToolChunk
		if len(msg.ToolCalls) != 1 {
			ilog.EventWarn(ctx, "sse_tool_calls", "raw", msg)
			return
		}
		fn := msg.ToolCalls[0].Function.Name
		if len(fn) > 0 {
			event = consts.EventToolCall
			data.ToolCalls = []model.ToolResp{{
				Name: fn,
				Args: map[string]interface{}{},
				Type: "tool_call",
				ID:   msg.ToolCalls[0].ID,
			}}
		}
		data.ToolCallChunks = []model.ToolChunkResp{{
			Name: fn,
			Args: msg.ToolCalls[0].Function.Arguments,
			Type: "tool_call_chunk",
			ID:   msg.ToolCalls[0].ID,
		}}
		cb.pushF(ctx, event, data)
		return
	}
	cb.pushF(ctx, consts.EventMessage, data)
}

// stagePhases maps stage node names to the progress line shown while the
// stage runs.
var stagePhases = map[string]string{
	consts.Researcher:  "Phase 1/3: Researching universities",
	consts.LocalExpert: "Phase 2/3: Estimating local living costs",
	consts.Timeline:    "Phase 3/3: Building your timeline and budget",
	consts.Reporter:    "Assembling your plan",
}

func (cb *LoggerCallback) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if info == nil {
		return ctx
	}
	if text, ok := stagePhases[info.Name]; ok {
		ilog.EventInfo(ctx, "stage_start", "run_id", cb.RunID, "stage", info.Name)
		cb.PushStatus(ctx, info.Name, text)
	}
	return ctx
}

func (cb *LoggerCallback) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	return ctx
}

func (cb *LoggerCallback) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	ilog.EventError(ctx, err, "pipeline_node_error", "run_id", cb.RunID, "stage", cb.LastStage())
	return ctx
}

func (cb *LoggerCallback) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	msgID := uuid.New().String()
	go func() {
		defer output.Close()
		defer func() {
			if err := recover(); err != nil {
				ilog.EventFatal(ctx, "stream_push_panic_recover", "msgID", msgID, "err", err)
			}
		}()
		for {
			frame, err := output.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				ilog.EventError(ctx, err, "stream_push_recv_error")
				return
			}

			switch v := frame.(type) {
			case *schema.Message:
				cb.pushMsg(ctx, msgID, v)
			case *ecmodel.CallbackOutput:
				cb.pushMsg(ctx, msgID, v.Message)
			case []*schema.Message:
				for _, m := range v {
					cb.pushMsg(ctx, msgID, m)
				}
			default:
			}
		}
	}()
	return ctx
}

func (cb *LoggerCallback) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	defer input.Close()
	return ctx
}
