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
	"fmt"
	"strings"
	"time"
)

// MonthEntry is one month of the action checklist produced by the timeline
// stage, decoded from the model's JSON-schema constrained response.
type MonthEntry struct {
	Month         string   `json:"month" validate:"required"` // YYYY-MM
	Items         []string `json:"items" validate:"required"`
	EstimatedCost float64  `json:"estimated_cost"`
}

// TimelinePlan is the structured timeline & budget of one run.
type TimelinePlan struct {
	Title     string       `json:"title" validate:"required"`
	Months    []MonthEntry `json:"months" validate:"required"`
	TotalCost float64      `json:"total_cost"`
	Currency  string       `json:"currency" validate:"required"`
	Notes     string       `json:"notes,omitempty"`
}

// Total returns the declared total cost, summing the months when the model
// left total_cost unset.
func (tp *TimelinePlan) Total() float64 {
	if tp.TotalCost > 0 {
		return tp.TotalCost
	}
	var sum float64
	for _, m := range tp.Months {
		sum += m.EstimatedCost
	}
	return sum
}

// RenderMarkdown renders the timeline as the third plan section. When the
// computed total exceeds the stated budget the section carries an explicit
// warning line; figures are never capped or omitted.
func (tp *TimelinePlan) RenderMarkdown(budget float64, budgetCurrency string) (string, bool) {
	var b strings.Builder
	if tp.Title != "" {
		b.WriteString(fmt.Sprintf("### %s\n\n", tp.Title))
	}
	total := tp.Total()
	overBudget := total > budget
	if overBudget {
		b.WriteString(fmt.Sprintf("> **Warning: estimated total %.2f %s exceeds your stated budget of %.2f %s.** Consider cheaper housing, fewer application fees, or scholarship options.\n\n",
			total, tp.Currency, budget, budgetCurrency))
	}
	for _, m := range tp.Months {
		b.WriteString(fmt.Sprintf("#### %s\n", m.Month))
		for _, item := range m.Items {
			b.WriteString(fmt.Sprintf("- %s\n", item))
		}
		if m.EstimatedCost > 0 {
			b.WriteString(fmt.Sprintf("- Estimated cost this month: %.2f %s\n", m.EstimatedCost, tp.Currency))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("**Running total: %.2f %s (stated budget: %.2f %s)**\n", total, tp.Currency, budget, budgetCurrency))
	if tp.Notes != "" {
		b.WriteString("\n" + tp.Notes + "\n")
	}
	return b.String(), overBudget
}

// Section is one labeled part of the final plan.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Plan is the terminal artifact of one run: a generated title plus exactly
// three sections in fixed order. It lives only for the request.
type Plan struct {
	Title       string    `json:"title"`
	Sections    []Section `json:"sections"`
	OverBudget  bool      `json:"over_budget"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Document renders the plan as a single downloadable markdown document.
func (p *Plan) Document() string {
	var b strings.Builder
	b.WriteString("# " + p.Title + "\n\n")
	for _, s := range p.Sections {
		b.WriteString("## " + s.Heading + "\n\n")
		b.WriteString(strings.TrimSpace(s.Body))
		b.WriteString("\n\n")
	}
	b.WriteString("---\nGenerated by abroad-go\n")
	return b.String()
}
