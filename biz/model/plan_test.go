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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleTimeline() *TimelinePlan {
	return &TimelinePlan{
		Title:    "Road to September 2026",
		Currency: "EUR",
		Months: []MonthEntry{
			{Month: "2026-03", Items: []string{"Shortlist universities", "Book language test"}, EstimatedCost: 300},
			{Month: "2026-04", Items: []string{"Submit applications"}, EstimatedCost: 450},
			{Month: "2026-09", Items: []string{"Fly out, move in"}, EstimatedCost: 2000},
		},
	}
}

func TestTimelineTotalSumsMonths(t *testing.T) {
	tp := sampleTimeline()
	assert.Equal(t, 2750.0, tp.Total())

	tp.TotalCost = 3000
	assert.Equal(t, 3000.0, tp.Total())
}

func TestRenderMarkdownWithinBudget(t *testing.T) {
	rendered, over := sampleTimeline().RenderMarkdown(15000, "EUR")
	assert.False(t, over)
	assert.NotContains(t, rendered, "Warning")
	assert.Contains(t, rendered, "#### 2026-03")
	assert.Contains(t, rendered, "Running total: 2750.00 EUR")
}

// An over-budget plan keeps the real figures and adds a visible warning.
func TestRenderMarkdownOverBudget(t *testing.T) {
	rendered, over := sampleTimeline().RenderMarkdown(2000, "EUR")
	assert.True(t, over)
	assert.Contains(t, rendered, "Warning: estimated total 2750.00 EUR exceeds your stated budget of 2000.00 EUR")
	assert.Contains(t, rendered, "Running total: 2750.00 EUR")
}

func TestPlanDocument(t *testing.T) {
	p := &Plan{
		Title: "Study Abroad Plan: Computer Science in Germany",
		Sections: []Section{
			{Heading: "University Research", Body: "TU Munich leads the list."},
			{Heading: "Local Living Guide", Body: "Expect 1100 EUR per month."},
			{Heading: "Timeline & Budget", Body: "#### 2026-03\n- Apply"},
		},
		GeneratedAt: time.Now().UTC(),
	}
	doc := p.Document()
	assert.Contains(t, doc, "# Study Abroad Plan: Computer Science in Germany")
	assert.Contains(t, doc, "## University Research")
	assert.Contains(t, doc, "## Local Living Guide")
	assert.Contains(t, doc, "## Timeline & Budget")

	// Section order in the document follows section order in the plan.
	assert.Less(t,
		strings.Index(doc, "## University Research"),
		strings.Index(doc, "## Local Living Guide"))
	assert.Less(t,
		strings.Index(doc, "## Local Living Guide"),
		strings.Index(doc, "## Timeline & Budget"))
}
