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
	"os"

	"github.com/RanFeng/ilog"
	"github.com/cloudwego/eino-ext/callbacks/apmplus"
	clc "github.com/cloudwego/eino-ext/callbacks/cozeloop"
	"github.com/cloudwego/eino/callbacks"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/coze-dev/cozeloop-go"
	"github.com/hertz-contrib/obs-opentelemetry/provider"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
)

const serviceName = "abroad-go"

var EmptyHertzConfigOption = hertzconfig.Option{}

// InitAPMPlusTracing wires optional APMPlus observability for both the eino
// graph and the Hertz server. Enabled only when APMPLUS_APP_KEY is set.
func InitAPMPlusTracing(ctx context.Context, withHertzServer bool) (tracer hertzconfig.Option, cfg *hertztracing.Config, shutdown func(ctx context.Context) error) {
	appKey := os.Getenv("APMPLUS_APP_KEY")
	if appKey == "" {
		return EmptyHertzConfigOption, nil, nil
	}
	region := os.Getenv("APMPLUS_REGION")
	if region == "" {
		region = "cn-beijing"
	}
	_, shutdown = initAPMPlusCallback(ctx, appKey, region)
	if !withHertzServer {
		return EmptyHertzConfigOption, nil, shutdown
	}
	tracer, cfg = initHertzTracing(ctx, appKey, region)
	return tracer, cfg, shutdown
}

func initAPMPlusCallback(ctx context.Context, appKey, region string) (callbacks.Handler, func(ctx context.Context) error) {
	cbh, shutdown, err := apmplus.NewApmplusHandler(&apmplus.Config{
		Host:        fmt.Sprintf("apmplus-%s.volces.com:4317", region),
		AppKey:      appKey,
		ServiceName: serviceName,
		Release:     "release/v0.1.0",
	})
	if err != nil {
		ilog.EventError(ctx, err, "init apmplus callback failed")
		return nil, nil
	}
	callbacks.AppendGlobalHandlers(cbh)
	ilog.EventInfo(ctx, "init_apmplus_callback", "region", region)
	return cbh, shutdown
}

func initHertzTracing(ctx context.Context, appKey, region string) (hertzconfig.Option, *hertztracing.Config) {
	ilog.EventInfo(ctx, "init_hertz_tracing", "region", region)
	_ = provider.NewOpenTelemetryProvider(
		provider.WithServiceName(serviceName),
		provider.WithExportEndpoint(fmt.Sprintf("apmplus-%s.volces.com:4317", region)),
		provider.WithInsecure(),
		provider.WithHeaders(map[string]string{"X-ByteAPM-AppKey": appKey}),
	)
	tracer, cfg := hertztracing.NewServerTracer()
	return tracer, cfg
}

// InitCozeLoopTracing registers the CozeLoop trace handler when the
// COZELOOP_* environment variables are present.
func InitCozeLoopTracing() {
	cozeloopApiToken := os.Getenv("COZELOOP_API_TOKEN")
	cozeloopWorkspaceID := os.Getenv("COZELOOP_WORKSPACE_ID")

	if cozeloopApiToken == "" || cozeloopWorkspaceID == "" {
		return
	}
	client, err := cozeloop.NewClient(
		cozeloop.WithAPIToken(cozeloopApiToken),
		cozeloop.WithWorkspaceID(cozeloopWorkspaceID),
	)
	if err != nil {
		panic(err)
	}
	cozeloop.SetDefaultClient(client)
	callbacks.AppendGlobalHandlers(clc.NewLoopHandler(client))
}
