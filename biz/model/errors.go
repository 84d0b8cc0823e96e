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
	"errors"
	"fmt"
)

// Error taxonomy of a plan run. Any stage failure aborts the remaining
// pipeline; every kind is surfaced to the user with a readable message.

// ValidationError reports a missing or malformed form field. It is recovered
// locally by re-prompting the form and never reaches the pipeline.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// ProviderError reports a failed LLM invocation (timeout, quota, transport).
type ProviderError struct {
	Stage string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("model provider failed in stage %q: %v", e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ToolError reports a failed search or scrape capability. The pipeline policy
// is to degrade: the failure text is handed back to the agent as the tool
// result, so a ToolError only escapes when degradation itself is impossible.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// ConversionError reports an unsupported currency code. Unlike search
// failures it aborts the run: a living-cost guide in the wrong currency
// would be silently misleading.
type ConversionError struct {
	From string
	To   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("unsupported currency conversion %s -> %s", e.From, e.To)
}

// Kind maps an error to its taxonomy name for the error SSE event.
func Kind(err error) string {
	var ve *ValidationError
	var pe *ProviderError
	var te *ToolError
	var ce *ConversionError
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &ce):
		return "conversion_error"
	case errors.As(err, &te):
		return "tool_error"
	case errors.As(err, &pe):
		return "provider_error"
	default:
		return "provider_error"
	}
}
