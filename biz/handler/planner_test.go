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
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abroadgo/abroad-go/biz/infra"
	"github.com/abroadgo/abroad-go/biz/model"
)

func testEngine() *route.Engine {
	e := route.NewEngine(config.NewOptions(nil))
	p := NewPlanner(&infra.Deps{})
	e.POST("/api/plan", p.CreatePlan)
	return e
}

func postPlan(t *testing.T, body string) *ut.ResponseRecorder {
	t.Helper()
	return ut.PerformRequest(testEngine(), "POST", "/api/plan",
		&ut.Body{Body: strings.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func TestCreatePlanRejectsBadJSON(t *testing.T) {
	w := postPlan(t, "{not json")
	resp := w.Result()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

	errResp := &model.ErrorResp{}
	require.NoError(t, sonic.Unmarshal(resp.Body(), errResp))
	assert.Equal(t, "validation_error", errResp.Kind)
}

func TestCreatePlanRejectsMissingField(t *testing.T) {
	body := `{"destination":"Germany","field_of_study":"","budget_amount":"15000","budget_currency":"EUR","target_start_date":"2026-09","housing_preference":"dormitory"}`
	w := postPlan(t, body)
	resp := w.Result()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

	errResp := &model.ErrorResp{}
	require.NoError(t, sonic.Unmarshal(resp.Body(), errResp))
	assert.Equal(t, "validation_error", errResp.Kind)
	assert.Contains(t, errResp.Message, "field_of_study")
}

func TestRetryable(t *testing.T) {
	assert.False(t, retryable(&model.ValidationError{Field: "destination", Reason: "empty"}))
	assert.False(t, retryable(&model.ConversionError{From: "XYZ", To: "EUR"}))
	assert.True(t, retryable(&model.ProviderError{Stage: "researcher", Err: errors.New("timeout")}))
	assert.True(t, retryable(errors.New("transient network failure")))
}
