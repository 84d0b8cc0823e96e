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

package consts

// ==================================== Stage Name ====================================
const (
	Researcher  = "researcher"
	LocalExpert = "local_expert"
	Timeline    = "timeline"
	Reporter    = "reporter"
)

// StageOrder is the fixed execution order of the pipeline. A stage never
// starts before every stage listed ahead of it has produced its result.
var StageOrder = []string{Researcher, LocalExpert, Timeline, Reporter}

// ==================================== Section Title ====================================
const (
	SectionResearch = "University Research"
	SectionLiving   = "Local Living Guide"
	SectionTimeline = "Timeline & Budget"
)

// ==================================== SSE Event ====================================
const (
	EventStatus    = "status"
	EventMessage   = "message_chunk"
	EventToolCall  = "tool_calls"
	EventToolChunk = "tool_call_chunks"
	EventToolRes   = "tool_call_result"
	EventPlan      = "plan"
	EventError     = "error"
)

// ==================================== Tool Name ====================================
const (
	ToolWebSearch  = "web_search"
	ToolScrapePage = "scrape_page"
	ToolConvert    = "convert_currency"
)
