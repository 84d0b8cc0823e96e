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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abroadgo/abroad-go/biz/consts"
	"github.com/abroadgo/abroad-go/biz/model"
)

func testPrefs() *model.StudyPreferences {
	req := &model.PlanRequest{
		Destination:       "Germany",
		FieldOfStudy:      "Computer Science",
		BudgetAmount:      "15000",
		BudgetCurrency:    "EUR",
		TargetStartDate:   "2026-09",
		HousingPreference: "shared apartment",
	}
	prefs, err := model.ParsePreferences(req)
	if err != nil {
		panic(err)
	}
	return prefs
}

func TestAssembleSectionsFixedOrder(t *testing.T) {
	plan := Assemble(testPrefs(), "research body", "living body", "timeline body", false)

	require.Len(t, plan.Sections, 3)
	assert.Equal(t, consts.SectionResearch, plan.Sections[0].Heading)
	assert.Equal(t, consts.SectionLiving, plan.Sections[1].Heading)
	assert.Equal(t, consts.SectionTimeline, plan.Sections[2].Heading)
	assert.Equal(t, "Study Abroad Plan: Computer Science in Germany", plan.Title)
	assert.False(t, plan.OverBudget)
}

// Assembly is pure: same inputs, same plan, no matter how often it runs.
func TestAssembleDeterministic(t *testing.T) {
	a := Assemble(testPrefs(), "r", "l", "t", true)
	b := Assemble(testPrefs(), "r", "l", "t", true)

	assert.Equal(t, a.Title, b.Title)
	assert.Equal(t, a.Sections, b.Sections)
	assert.Equal(t, a.OverBudget, b.OverBudget)
}
