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
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"github.com/abroadgo/abroad-go/biz/consts"
	"github.com/abroadgo/abroad-go/biz/model"
)

// usdRates holds units per 1 USD. Approximate reference rates; override per
// deployment via the currency.rates config section.
var usdRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.85,
	"GBP": 0.75,
	"CAD": 1.25,
	"AUD": 1.35,
	"JPY": 110.0,
	"CNY": 7.2,
	"INR": 83.0,
	"CHF": 0.88,
	"SEK": 10.5,
	"NOK": 10.8,
	"DKK": 6.4,
	"SGD": 1.35,
	"NZD": 1.62,
	"KRW": 1330.0,
}

// CurrencyConverter normalizes amounts between currency codes. An unknown
// code is a hard *model.ConversionError: a guide priced in the wrong
// currency would be silently misleading, so the run must abort.
type CurrencyConverter struct {
	perUSD    map[string]float64
	overrides map[string]float64 // keyed FROM_TO
}

func NewCurrencyConverter(overrides map[string]float64) *CurrencyConverter {
	perUSD := make(map[string]float64, len(usdRates))
	for code, rate := range usdRates {
		perUSD[code] = rate
	}
	norm := make(map[string]float64, len(overrides))
	for pair, factor := range overrides {
		norm[strings.ToUpper(pair)] = factor
	}
	return &CurrencyConverter{perUSD: perUSD, overrides: norm}
}

// Convert converts amount from one currency code to another.
func (c *CurrencyConverter) Convert(amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount, nil
	}
	if factor, ok := c.overrides[from+"_"+to]; ok {
		return amount * factor, nil
	}
	fromRate, okFrom := c.perUSD[from]
	toRate, okTo := c.perUSD[to]
	if !okFrom || !okTo {
		return 0, &model.ConversionError{From: from, To: to}
	}
	return amount / fromRate * toRate, nil
}

// Rate returns the effective conversion factor between two codes.
func (c *CurrencyConverter) Rate(from, to string) (float64, error) {
	return c.Convert(1, from, to)
}

type ConvertInput struct {
	Amount float64 `json:"amount" jsonschema:"description=amount of money to convert"`
	From   string  `json:"from" jsonschema:"description=source currency code, e.g. USD"`
	To     string  `json:"to" jsonschema:"description=target currency code, e.g. EUR"`
}

// NewCurrencyTool exposes the converter to the living-cost agent. Unlike the
// search tools this one does NOT degrade: a conversion failure propagates and
// aborts the run.
func NewCurrencyTool(_ context.Context, conv *CurrencyConverter) (tool.InvokableTool, error) {
	return utils.InferTool(consts.ToolConvert,
		"Convert an amount between currencies. Use it to state every cost in the student's budget currency.",
		func(ctx context.Context, input *ConvertInput) (string, error) {
			converted, err := conv.Convert(input.Amount, input.From, input.To)
			if err != nil {
				return "", err
			}
			rate, _ := conv.Rate(input.From, input.To)
			return fmt.Sprintf("%.2f %s = %.2f %s (rate %.4f, approximate reference rate)",
				input.Amount, strings.ToUpper(input.From), converted, strings.ToUpper(input.To), rate), nil
		})
}
