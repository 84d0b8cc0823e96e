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
	"strconv"
	"strings"
	"time"
)

// PlanRequest carries the raw form values of one submission.
type PlanRequest struct {
	Destination       string `json:"destination"`
	FieldOfStudy      string `json:"field_of_study"`
	BudgetAmount      string `json:"budget_amount"`
	BudgetCurrency    string `json:"budget_currency"`
	TargetStartDate   string `json:"target_start_date"`
	HousingPreference string `json:"housing_preference"`

	// Optional context fields, prompt enrichment only.
	Origin     string `json:"origin,omitempty"`
	StudyLevel string `json:"study_level,omitempty"`
	Interests  string `json:"interests,omitempty"`
}

// StudyPreferences is the validated, immutable input of one pipeline run.
type StudyPreferences struct {
	Destination       string
	FieldOfStudy      string
	BudgetAmount      float64
	BudgetCurrency    string
	TargetStartDate   time.Time
	HousingPreference string

	Origin     string
	StudyLevel string
	Interests  string
}

var startDateLayouts = []string{"2006-01", "2006-01-02"}

// ParsePreferences validates the raw form values. It returns a
// *ValidationError naming the first missing or malformed field.
func ParsePreferences(req *PlanRequest) (*StudyPreferences, error) {
	dest := strings.TrimSpace(req.Destination)
	if dest == "" {
		return nil, &ValidationError{Field: "destination", Reason: "must not be empty"}
	}
	field := strings.TrimSpace(req.FieldOfStudy)
	if field == "" {
		return nil, &ValidationError{Field: "field_of_study", Reason: "must not be empty"}
	}

	rawAmount := strings.TrimSpace(strings.ReplaceAll(req.BudgetAmount, ",", ""))
	if rawAmount == "" {
		return nil, &ValidationError{Field: "budget_amount", Reason: "must not be empty"}
	}
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil {
		return nil, &ValidationError{Field: "budget_amount", Reason: "must be a number"}
	}
	if amount <= 0 {
		return nil, &ValidationError{Field: "budget_amount", Reason: "must be positive"}
	}

	currency := strings.ToUpper(strings.TrimSpace(req.BudgetCurrency))
	if currency == "" {
		return nil, &ValidationError{Field: "budget_currency", Reason: "must not be empty"}
	}
	if len(currency) != 3 {
		return nil, &ValidationError{Field: "budget_currency", Reason: "must be a 3-letter code"}
	}

	rawDate := strings.TrimSpace(req.TargetStartDate)
	if rawDate == "" {
		return nil, &ValidationError{Field: "target_start_date", Reason: "must not be empty"}
	}
	var start time.Time
	parsed := false
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, rawDate); err == nil {
			start = t
			parsed = true
			break
		}
	}
	if !parsed {
		return nil, &ValidationError{Field: "target_start_date", Reason: "must be YYYY-MM or YYYY-MM-DD"}
	}

	housing := strings.TrimSpace(req.HousingPreference)
	if housing == "" {
		return nil, &ValidationError{Field: "housing_preference", Reason: "must not be empty"}
	}

	return &StudyPreferences{
		Destination:       dest,
		FieldOfStudy:      field,
		BudgetAmount:      amount,
		BudgetCurrency:    currency,
		TargetStartDate:   start,
		HousingPreference: housing,
		Origin:            strings.TrimSpace(req.Origin),
		StudyLevel:        strings.TrimSpace(req.StudyLevel),
		Interests:         strings.TrimSpace(req.Interests),
	}, nil
}
