package http

import (
	"context"

	"marklens/internal/services"
)

type runCtxKey struct{}

func withRun(ctx context.Context, result *services.AnalysisResult) context.Context {
	return context.WithValue(ctx, runCtxKey{}, result)
}

func runFrom(ctx context.Context) *services.AnalysisResult {
	result, _ := ctx.Value(runCtxKey{}).(*services.AnalysisResult)
	return result
}
