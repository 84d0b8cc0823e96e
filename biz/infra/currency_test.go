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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abroadgo/abroad-go/biz/model"
)

func TestConvertSameCurrency(t *testing.T) {
	conv := NewCurrencyConverter(nil)
	got, err := conv.Convert(1234.56, "EUR", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 1234.56, got)
}

func TestConvertViaUSD(t *testing.T) {
	conv := NewCurrencyConverter(nil)

	got, err := conv.Convert(100, "USD", "EUR")
	require.NoError(t, err)
	assert.InDelta(t, 85, got, 0.01)

	got, err = conv.Convert(85, "EUR", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 100, got, 0.01)

	// Cross rate: EUR -> JPY goes through USD.
	got, err = conv.Convert(1, "EUR", "JPY")
	require.NoError(t, err)
	assert.InDelta(t, 110.0/0.85, got, 0.01)
}

func TestConvertOverride(t *testing.T) {
	conv := NewCurrencyConverter(map[string]float64{"usd_eur": 0.9})
	got, err := conv.Convert(100, "USD", "EUR")
	require.NoError(t, err)
	assert.InDelta(t, 90, got, 0.01)
}

// An unknown code aborts with a typed conversion error; there is no silent
// fallback rate.
func TestConvertUnknownCode(t *testing.T) {
	conv := NewCurrencyConverter(nil)
	_, err := conv.Convert(100, "XYZ", "EUR")
	require.Error(t, err)
	var ce *model.ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "XYZ", ce.From)
	assert.Equal(t, "EUR", ce.To)
}

// The tool wrapper must propagate the conversion error, not swallow it into a
// degraded tool result.
func TestCurrencyToolPropagatesError(t *testing.T) {
	ctx := context.Background()
	tl, err := NewCurrencyTool(ctx, NewCurrencyConverter(nil))
	require.NoError(t, err)

	_, err = tl.InvokableRun(ctx, `{"amount":100,"from":"XYZ","to":"EUR"}`)
	require.Error(t, err)
	var ce *model.ConversionError
	assert.True(t, errors.As(err, &ce))
}

func TestCurrencyToolOutput(t *testing.T) {
	ctx := context.Background()
	tl, err := NewCurrencyTool(ctx, NewCurrencyConverter(nil))
	require.NoError(t, err)

	out, err := tl.InvokableRun(ctx, `{"amount":100,"from":"USD","to":"EUR"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "100.00 USD")
	assert.Contains(t, out, "EUR")
}
