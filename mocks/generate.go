package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/zakaria-lahyani/backtester/internal/datasource DataSource
//go:generate mockgen -destination=./mock_portfolio.go -package=mocks github.com/zakaria-lahyani/backtester/internal/portfolio Engine
//go:generate mockgen -destination=./mock_summary_sink.go -package=mocks github.com/zakaria-lahyani/backtester/internal/results SummarySink
