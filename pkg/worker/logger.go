package worker

import (
	"context"

	"github.com/yusufsyaifudin/ylog"
)

type Logger interface {
	Info(ctx context.Context, msg string)
}

type contextual struct{}

func (*contextual) Info(ctx context.Context, msg string) {
	ylog.Info(ctx, msg)
}
