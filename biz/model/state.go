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

package model

import (
	"encoding/json"

	"github.com/cloudwego/eino/schema"
)

// State is the graph-local state of one pipeline run. Each run owns its own
// State; nothing here is shared across sessions. Stages only append: a stage
// writes its own result field and never edits an upstream one.
type State struct {
	RunID string
	Prefs *StudyPreferences

	Messages []*schema.Message
	// Goto names the next stage; the hand-off branch reads it.
	Goto string

	ResearchResult string
	LivingResult   string
	Timeline       *TimelinePlan
	TimelineResult string
	OverBudget     bool

	Plan *Plan
}

func (s *State) MarshalJSON() ([]byte, error) {
	type alias State
	return json.Marshal((*alias)(s))
}

// ChatResp is the SSE payload pushed to the browser while a run progresses.
type ChatResp struct {
	RunID        string `json:"run_id"`
	Stage        string `json:"stage"`
	ID           string `json:"id"`
	Role         string `json:"role"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`

	ToolCallID     string          `json:"tool_call_id,omitempty"`
	ToolCalls      []ToolResp      `json:"tool_calls,omitempty"`
	ToolCallChunks []ToolChunkResp `json:"tool_call_chunks,omitempty"`
}

type ToolResp struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
	Type string                 `json:"type"`
	ID   string                 `json:"id"`
}

type ToolChunkResp struct {
	Name string `json:"name"`
	Args string `json:"args"`
	Type string `json:"type"`
	ID   string `json:"id"`
}

// PlanResp is the terminal SSE payload of a successful run.
type PlanResp struct {
	RunID      string `json:"run_id"`
	Plan       *Plan  `json:"plan"`
	Document   string `json:"document"`
	OverBudget bool   `json:"over_budget"`
}

// ErrorResp is the terminal SSE payload of a failed run.
type ErrorResp struct {
	RunID   string `json:"run_id"`
	Kind    string `json:"kind"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}
