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

package main

import (
	"context"
	"net/http"

	"github.com/RanFeng/ilog"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/hertz-contrib/cors"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"github.com/abroadgo/abroad-go/biz/handler"
	"github.com/abroadgo/abroad-go/biz/infra"
	"github.com/abroadgo/abroad-go/conf"
	"github.com/abroadgo/abroad-go/web"
)

func main() {
	ctx := context.Background()

	conf.LoadPlannerConfig(ctx)
	infra.InitMCP()
	infra.InitCozeLoopTracing()
	tracer, tracerCfg, shutdown := infra.InitAPMPlusTracing(ctx, true)
	if shutdown != nil {
		defer shutdown(ctx)
	}

	deps, err := infra.InitDeps(ctx)
	if err != nil {
		ilog.EventFatal(ctx, "init_deps_failed", "err", err)
	}

	opts := []hertzconfig.Option{server.WithHostPorts(conf.Config.Setting.ListenAddr)}
	if tracer.F != nil {
		opts = append(opts, tracer)
	}
	h := server.Default(opts...)
	if tracerCfg != nil {
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
	}
	h.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	planner := handler.NewPlanner(deps)

	h.GET("/", func(_ context.Context, c *app.RequestContext) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
	})
	h.POST("/api/plan", planner.CreatePlan)

	ilog.EventInfo(ctx, "server_start", "addr", conf.Config.Setting.ListenAddr)
	h.Spin()
}
