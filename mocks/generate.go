package mocks

//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/argo-ablation/internal/strategy Strategy,MarketView
//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1/datasource DataSource
