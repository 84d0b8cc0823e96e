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

package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/RanFeng/ilog"
	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/sse"
	"github.com/google/uuid"

	"github.com/abroadgo/abroad-go/biz/consts"
	"github.com/abroadgo/abroad-go/biz/eino"
	"github.com/abroadgo/abroad-go/biz/infra"
	"github.com/abroadgo/abroad-go/biz/model"
	"github.com/abroadgo/abroad-go/conf"
)

// Planner serves plan requests over one streamed response each. It holds the
// process-wide dependencies; all per-run data lives in the run's graph state.
type Planner struct {
	deps *infra.Deps
}

func NewPlanner(deps *infra.Deps) *Planner {
	return &Planner{deps: deps}
}

// CreatePlan handles POST /api/plan: validate the form, then stream progress
// and the finished plan as SSE events on the same response.
func (p *Planner) CreatePlan(ctx context.Context, c *app.RequestContext) {
	req := &model.PlanRequest{}
	if err := sonic.Unmarshal(c.Request.Body(), req); err != nil {
		c.JSON(http.StatusBadRequest, &model.ErrorResp{
			Kind:    "validation_error",
			Message: "request body is not valid JSON",
		})
		return
	}

	prefs, err := model.ParsePreferences(req)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, &model.ErrorResp{
				Kind:    model.Kind(err),
				Message: ve.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, &model.ErrorResp{Kind: model.Kind(err), Message: err.Error()})
		return
	}

	runID := uuid.New().String()
	ilog.EventInfo(ctx, "plan_request", "run_id", runID,
		"destination", prefs.Destination, "field", prefs.FieldOfStudy)

	w := sse.NewWriter(c)
	defer w.Close()

	cb := &infra.LoggerCallback{RunID: runID, SSE: w}
	p.run(ctx, runID, prefs, cb)
}

// run executes the pipeline with the bounded retry policy: one extra attempt,
// only for failures that are plausibly transient. Validation and currency
// conversion failures are deterministic and never retried.
func (p *Planner) run(ctx context.Context, runID string, prefs *model.StudyPreferences, cb *infra.LoggerCallback) {
	maxAttempts := 1 + conf.Config.Setting.MaxRetries

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			cb.PushStatus(ctx, cb.LastStage(), "Something went wrong, retrying the plan once...")
			time.Sleep(time.Duration(conf.Config.Setting.RetryDelaySec) * time.Second)
		}

		planJSON, err := p.invokeOnce(ctx, runID, prefs, cb)
		if err == nil {
			p.pushPlan(ctx, runID, planJSON, cb)
			return
		}
		lastErr = err
		ilog.EventError(ctx, err, "plan_attempt_failed", "run_id", runID, "attempt", attempt)

		if !retryable(err) {
			break
		}
	}

	cb.PushError(ctx, &model.ErrorResp{
		RunID:   runID,
		Kind:    model.Kind(lastErr),
		Stage:   cb.LastStage(),
		Message: lastErr.Error(),
	})
}

func (p *Planner) invokeOnce(ctx context.Context, runID string, prefs *model.StudyPreferences, cb *infra.LoggerCallback) (string, error) {
	timeout := time.Duration(conf.Config.Setting.StageTimeoutSec) * 3 * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	genFunc := func(ctx context.Context) *model.State {
		return &model.State{
			RunID: runID,
			Prefs: prefs,
			Goto:  consts.Researcher,
		}
	}

	r := eino.Builder[string, string](runCtx, p.deps, genFunc)
	if r == nil {
		return "", &model.ProviderError{Stage: consts.Researcher, Err: errors.New("pipeline graph failed to compile")}
	}
	return r.Invoke(runCtx, "start", compose.WithCallbacks(cb))
}

func (p *Planner) pushPlan(ctx context.Context, runID, planJSON string, cb *infra.LoggerCallback) {
	plan := &model.Plan{}
	if err := sonic.UnmarshalString(planJSON, plan); err != nil {
		ilog.EventError(ctx, err, "plan_decode_failed", "run_id", runID)
		cb.PushError(ctx, &model.ErrorResp{
			RunID:   runID,
			Kind:    "provider_error",
			Stage:   consts.Reporter,
			Message: "assembled plan could not be decoded",
		})
		return
	}
	cb.PushPlan(ctx, &model.PlanResp{
		RunID:      runID,
		Plan:       plan,
		Document:   plan.Document(),
		OverBudget: plan.OverBudget,
	})
	ilog.EventInfo(ctx, "plan_done", "run_id", runID, "over_budget", plan.OverBudget)
}

// retryable reports whether a failed attempt is worth one more try.
func retryable(err error) bool {
	var ve *model.ValidationError
	var ce *model.ConversionError
	if errors.As(err, &ve) || errors.As(err, &ce) {
		return false
	}
	return true
}
