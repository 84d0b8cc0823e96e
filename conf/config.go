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

package conf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RanFeng/ilog"
	"gopkg.in/yaml.v3"
)

// PlannerConfig is the single YAML configuration of the service.
// API credentials are read once at startup and are read-only afterwards,
// so concurrent plan runs can share them without locking.
type PlannerConfig struct {
	MCP struct {
		Servers map[string]struct {
			Command string            `yaml:"command"`
			Args    []string          `yaml:"args"`
			Env     map[string]string `yaml:"env,omitempty"`
		} `yaml:"servers"`
	} `yaml:"mcp"`
	Model struct {
		DefaultModel  string `yaml:"default_model"`
		APIKey        string `yaml:"api_key"`
		BaseURL       string `yaml:"base_url"`
		OllamaBaseURL string `yaml:"ollama_base_url"`
		OllamaModel   string `yaml:"ollama_model"`
	} `yaml:"model"`
	Search struct {
		Region     string `yaml:"region"`
		MaxResults int    `yaml:"max_results"`
	} `yaml:"search"`
	Currency struct {
		// Rates maps "FROM_TO" (e.g. "USD_EUR") to a conversion factor,
		// overriding or extending the built-in table.
		Rates map[string]float64 `yaml:"rates,omitempty"`
	} `yaml:"currency"`
	Setting struct {
		ListenAddr      string `yaml:"listen_addr"`
		MaxAgentSteps   int    `yaml:"max_agent_steps"`
		StageTimeoutSec int    `yaml:"stage_timeout_sec"`
		MaxRetries      int    `yaml:"max_retries"`
		RetryDelaySec   int    `yaml:"retry_delay_sec"`
	} `yaml:"setting"`
}

var (
	Config *PlannerConfig = &PlannerConfig{}
)

func LoadPlannerConfig(ctx context.Context) {
	dir, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("get working directory failed: %v", err))
	}

	configPath := filepath.Join(dir, "conf", "abroad-go.yaml")

	configData, err := os.ReadFile(configPath)
	if err != nil {
		panic(fmt.Sprintf("read config file %s failed: %v", configPath, err))
	}

	var plannerConfig PlannerConfig
	if err := yaml.Unmarshal(configData, &plannerConfig); err != nil {
		panic(fmt.Sprintf("parse config file %s failed: %v", configPath, err))
	}

	applyDefaults(&plannerConfig)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && plannerConfig.Model.APIKey == "" {
		plannerConfig.Model.APIKey = key
	}

	ilog.EventInfo(ctx, "load_config", "conf", plannerConfig)

	Config = &plannerConfig
}

func applyDefaults(c *PlannerConfig) {
	if c.Setting.ListenAddr == "" {
		c.Setting.ListenAddr = ":8888"
	}
	if c.Setting.MaxAgentSteps <= 0 {
		c.Setting.MaxAgentSteps = 25
	}
	if c.Setting.StageTimeoutSec <= 0 {
		c.Setting.StageTimeoutSec = 300
	}
	if c.Setting.MaxRetries < 0 || c.Setting.MaxRetries > 1 {
		// retry is a bounded, explicit policy: zero or one whole-pipeline retry
		c.Setting.MaxRetries = 1
	}
	if c.Setting.RetryDelaySec <= 0 {
		c.Setting.RetryDelaySec = 5
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 8
	}
	if c.Search.Region == "" {
		c.Search.Region = "wt-wt"
	}
}
